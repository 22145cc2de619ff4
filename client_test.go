package ambivision_test

import (
	"errors"
	"net"
	"time"

	. "github.com/lilavd/ambivision"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stretchr/testify/mock"

	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/mocks"
)

var _ = Describe("Client", func() {
	var (
		client        *Client
		mockTransport *mocks.Transport

		deviceIP = net.ParseIP(`192.168.1.50`)
		reply    = []byte(`AmbiVision(605533_V.18) MagicLink(21393430v7)`)
	)

	BeforeEach(func() {
		mockTransport = new(mocks.Transport)
		mockTransport.On(`SendBroadcast`, mock.Anything, common.DefaultPort).Return(nil)

		var err error
		client, err = NewClient(mockTransport)
		Expect(err).NotTo(HaveOccurred())
		client.SetSettleTime(time.Millisecond)
	})

	AfterEach(func() {
		_ = client.Close()
	})

	It("should broadcast a discovery ping on NewClient", func() {
		mockTransport.AssertCalled(GinkgoT(), `SendBroadcast`, []byte(`AmbiVisionPing`), common.DefaultPort)
	})

	It("should reject an unknown mode name before any network I/O", func() {
		_, err := client.SetMode(`Rave`)
		Expect(err).To(MatchError(common.ErrInvalidArgument))
		mockTransport.AssertNotCalled(GinkgoT(), `SendDatagram`, mock.Anything, mock.Anything, mock.Anything)
	})

	It("should reject a sub-mode outside its family's vocabulary", func() {
		_, err := client.SetAudioSubMode(`Disco`)
		Expect(err).To(MatchError(common.ErrInvalidArgument))
		mockTransport.AssertNotCalled(GinkgoT(), `SendDatagram`, mock.Anything, mock.Anything, mock.Anything)
	})

	It("should fail with ErrNoAddress when the device was never discovered", func() {
		_, err := client.SetMode(`Mood`)
		Expect(err).To(MatchError(common.ErrNoAddress))
	})

	Context("with a discovered device", func() {
		BeforeEach(func() {
			client.OnDatagramReceived(reply, deviceIP)
		})

		It("should expose the discovered identity and address", func() {
			attrs := client.Attributes()
			Expect(attrs[common.AttrDeviceID]).To(Equal(`605533`))
			Expect(attrs[common.AttrFirmwareVersion]).To(Equal(`V.18`))
			Expect(attrs[common.AttrIPAddress]).To(Equal(`192.168.1.50`))
		})

		It("should be unchanged by repeated identical discovery replies", func() {
			before := client.Attributes()
			for i := 0; i < 3; i++ {
				client.OnDatagramReceived(reply, deviceIP)
			}
			Expect(client.Attributes()).To(Equal(before))
		})

		It("should follow the device to a new address", func() {
			moved := net.ParseIP(`192.168.1.77`)
			client.OnDatagramReceived(reply, moved)
			Expect(client.Attributes()[common.AttrIPAddress]).To(Equal(`192.168.1.77`))
		})

		It("should ignore payloads without the discovery signature", func() {
			client.OnDatagramReceived([]byte(`NOTIFY * HTTP/1.1`), net.ParseIP(`192.168.1.99`))
			Expect(client.Attributes()[common.AttrIPAddress]).To(Equal(`192.168.1.50`))
		})

		It("should discard a malformed reply without surfacing an error", func() {
			client.OnDatagramReceived([]byte(`AmbiVision(bogus)`), net.ParseIP(`192.168.1.99`))
			Expect(client.Attributes()[common.AttrIPAddress]).To(Equal(`192.168.1.50`))
		})

		It("should log the discarded malformed reply at warn level", func() {
			mockLogger := new(mocks.Logger)
			mockLogger.On(`Debugf`, mock.Anything, mock.Anything)
			mockLogger.On(`Infof`, mock.Anything, mock.Anything)
			mockLogger.On(`Warnf`, mock.Anything, mock.Anything)
			mockLogger.On(`Errorf`, mock.Anything, mock.Anything)
			SetLogger(mockLogger)
			defer SetLogger(&common.StubLogger{})

			client.OnDatagramReceived([]byte(`AmbiVision(bogus)`), net.ParseIP(`192.168.1.99`))

			mockLogger.AssertCalled(GinkgoT(), `Warnf`, `[ambivision] Discarding discovery reply from %v: %v`, mock.Anything)
		})

		It("should send a mode command and report attributes", func() {
			mockTransport.On(`SendDatagram`, []byte(`AmbiVision23`), deviceIP, common.DefaultPort).Return(nil)

			attrs, err := client.SetMode(`Audio`)
			Expect(err).NotTo(HaveOccurred())
			Expect(attrs[common.AttrMode]).To(Equal(`Audio`))
			Expect(attrs[common.AttrSwitch]).To(Equal(`on`))
		})

		It("should clamp brightness instead of rejecting it", func() {
			mockTransport.On(`SendDatagram`, []byte("AmbiVision4 OVERALL_BRIGHTNESS={100} \n"), deviceIP, common.DefaultPort).Return(nil)

			attrs, err := client.SetBrightness(150)
			Expect(err).NotTo(HaveOccurred())
			Expect(attrs[common.AttrLevel]).To(Equal(`100`))
		})

		It("should dispatch a 3-step sequence for a color while not in Mood/Manual", func() {
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(nil)

			_, err := client.SetColor(0, 100, 100)
			Expect(err).NotTo(HaveOccurred())

			Expect(mockTransport.Calls).To(HaveLen(4)) // discovery broadcast + 3 steps
			Expect(mockTransport.Calls[1].Arguments.Get(0)).To(Equal([]byte(`AmbiVision22`)))
			Expect(mockTransport.Calls[2].Arguments.Get(0)).To(Equal([]byte(`AmbiVision31`)))
			Expect(mockTransport.Calls[3].Arguments.Get(0)).To(Equal([]byte("AmbiVision1 R{255} G{0} B{0} \n")))
		})

		It("should dispatch a single step for a color while already in Mood/Manual", func() {
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(nil)

			_, err := client.SetColor(0, 100, 100)
			Expect(err).NotTo(HaveOccurred())
			before := len(mockTransport.Calls)

			_, err = client.SetColor(50, 100, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockTransport.Calls).To(HaveLen(before + 1))
		})

		It("should retain completed steps and abort the rest on a send failure", func() {
			sendErr := errors.New(`host unreachable`)
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(nil).Once()
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(sendErr).Once()

			_, err := client.SetColor(0, 100, 100)

			var dispatchErr *common.DispatchError
			Expect(errors.As(err, &dispatchErr)).To(BeTrue())
			Expect(dispatchErr.Completed).To(Equal(1))

			// mode switch was sent and stays asserted, the color never was
			state := client.State()
			Expect(state.Mode).To(Equal(common.ModeMood))
			Expect(state.SubMode.Valid()).To(BeFalse())
			Expect(state.Color.Level).To(Equal(uint8(0)))
		})

		It("should map power off to the Off mode", func() {
			mockTransport.On(`SendDatagram`, []byte(`AmbiVision24`), deviceIP, common.DefaultPort).Return(nil)

			attrs, err := client.SetPower(false)
			Expect(err).NotTo(HaveOccurred())
			Expect(attrs[common.AttrSwitch]).To(Equal(`off`))
			Expect(attrs[common.AttrMode]).To(Equal(`Off`))
		})

		It("should restore the last active mode on power on", func() {
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(nil)

			_, err := client.SetMode(`Audio`)
			Expect(err).NotTo(HaveOccurred())
			_, err = client.SetPower(false)
			Expect(err).NotTo(HaveOccurred())

			attrs, err := client.SetPower(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(attrs[common.AttrMode]).To(Equal(`Audio`))
			Expect(attrs[common.AttrSwitch]).To(Equal(`on`))
		})

		It("should publish discovery events to subscribers", func() {
			sub, err := client.NewSubscription()
			Expect(err).NotTo(HaveOccurred())

			moved := net.ParseIP(`192.168.1.77`)
			client.OnDatagramReceived(reply, moved)

			var discovered common.EventDiscovered
			Eventually(sub.Events()).Should(Receive(&discovered))
			Expect(discovered.Record.DeviceID).To(Equal(`605533`))

			var updated common.EventAddressUpdated
			Eventually(sub.Events()).Should(Receive(&updated))
			Expect(updated.Record.IP.Equal(moved)).To(BeTrue())
		})

		It("should publish a state assertion after a completed operation", func() {
			mockTransport.On(`SendDatagram`, mock.Anything, deviceIP, common.DefaultPort).Return(nil)
			sub, err := client.NewSubscription()
			Expect(err).NotTo(HaveOccurred())

			_, err = client.SetMode(`Mood`)
			Expect(err).NotTo(HaveOccurred())

			var asserted common.EventStateAsserted
			Eventually(sub.Events()).Should(Receive(&asserted))
			Expect(asserted.State.Mode).To(Equal(common.ModeMood))
		})
	})

	It("should resolve a configured fallback address until discovery succeeds", func() {
		fallback := net.ParseIP(`10.0.0.42`)
		client.SetFallbackAddress(fallback)
		mockTransport.On(`SendDatagram`, []byte(`AmbiVision22`), fallback, common.DefaultPort).Return(nil)

		_, err := client.SetMode(`Mood`)
		Expect(err).NotTo(HaveOccurred())

		client.OnDatagramReceived(reply, deviceIP)
		Expect(client.Attributes()[common.AttrIPAddress]).To(Equal(`192.168.1.50`))
	})

	It("should return an error on double-close", func() {
		Expect(client.Close()).To(Succeed())
		Expect(client.Close()).To(Equal(common.ErrClosed))
	})

	It("should refuse operations after close", func() {
		Expect(client.Close()).To(Succeed())
		_, err := client.SetMode(`Mood`)
		Expect(err).To(Equal(common.ErrClosed))
		Expect(client.Discover()).To(Equal(common.ErrClosed))
	})
})

package mocks

import "net"

import "github.com/stretchr/testify/mock"

type Transport struct {
	mock.Mock
}

// SendDatagram provides a mock function with given fields: payload, ip, port
func (_m *Transport) SendDatagram(payload []byte, ip net.IP, port int) error {
	ret := _m.Called(payload, ip, port)

	var r0 error
	if rf, ok := ret.Get(0).(func([]byte, net.IP, int) error); ok {
		r0 = rf(payload, ip, port)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// SendBroadcast provides a mock function with given fields: payload, port
func (_m *Transport) SendBroadcast(payload []byte, port int) error {
	ret := _m.Called(payload, port)

	var r0 error
	if rf, ok := ret.Get(0).(func([]byte, int) error); ok {
		r0 = rf(payload, port)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

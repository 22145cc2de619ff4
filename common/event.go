package common

// EventDiscovered is emitted when a discovery reply is parsed successfully
type EventDiscovered struct {
	Record DiscoveryRecord
}

// EventAddressUpdated is emitted when a discovery reply changes the resolved
// address of the device
type EventAddressUpdated struct {
	Record DiscoveryRecord
}

// EventStateAsserted is emitted after an operation completes and the full
// target lighting state has been committed.  State is asserted, not
// device-confirmed, the appliance sends no status feedback.
type EventStateAsserted struct {
	State LightingState
}

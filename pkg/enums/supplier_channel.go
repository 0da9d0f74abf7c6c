package enums

import "fmt"

// SupplierChannel describes how purchase orders reach the supplier.
type SupplierChannel string

const (
	SupplierChannelEmail SupplierChannel = "email"
	SupplierChannelAPI   SupplierChannel = "api"
)

var validSupplierChannels = []SupplierChannel{
	SupplierChannelEmail,
	SupplierChannelAPI,
}

// String implements fmt.Stringer.
func (c SupplierChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known SupplierChannel.
func (c SupplierChannel) IsValid() bool {
	for _, candidate := range validSupplierChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseSupplierChannel converts raw input into a SupplierChannel.
func ParseSupplierChannel(value string) (SupplierChannel, error) {
	for _, candidate := range validSupplierChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplier channel %q", value)
}

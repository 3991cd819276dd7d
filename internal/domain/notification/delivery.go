// internal/domain/notification/delivery.go
package notification

// Delivery records which channels actually showed a notification.
type Delivery struct {
	Native bool
	Toast  bool
}

// Delivered reports whether any visible notification happened.
func (d Delivery) Delivered() bool {
	return d.Native || d.Toast
}

func (d Delivery) String() string {
	switch {
	case d.Native && d.Toast:
		return "native+toast"
	case d.Native:
		return "native"
	case d.Toast:
		return "toast"
	default:
		return "none"
	}
}

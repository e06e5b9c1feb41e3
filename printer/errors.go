package printer

import "errors"

// Error kinds. Operations wrap one of these together with the underlying
// cause, so callers check the kind with errors.Is.
var (
	ErrSocketCreation = errors.New("socket creation failed")
	ErrInvalidAddress = errors.New("invalid printer address")
	ErrConnection     = errors.New("connection failed")
	ErrSend           = errors.New("send failed")
	ErrImageUpload    = errors.New("image upload failed")
	ErrImagePrint     = errors.New("image print failed")

	ErrInvalidBitmap = errors.New("bitmap does not fit the printer")
	ErrClosed        = errors.New("printer connection closed")
)

package domain

// OTPSetup is returned by OTP enrollment. The URL is an otpauth:// URI the
// client renders as a QR code; rendering is not this service's concern.
type OTPSetup struct {
	Secret  string `json:"secret"`
	URL     string `json:"url"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

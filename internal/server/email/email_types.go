package email

type EmailInfo struct {
	FromName  string // Name of the sender, Config.FromName when empty
	FromEmail string // Email of the sender, Config.FromEmail when empty
	ToName    string // Name of the recipient
	ToEmail   string // Email of the recipient
	Subject   string // Subject of the email
	TextBody  string // Plain text body
	HTMLBody  string // HTML body
}

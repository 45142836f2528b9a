package messages

// Notifier pushes transient notifications to the bot owner's chat.
// It is the out-of-band channel next to the inline command replies.
type Notifier struct {
	sender messageSender
	userID int64
}

func NewNotifier(sender messageSender, userID int64) *Notifier {
	return &Notifier{sender: sender, userID: userID}
}

func (n *Notifier) Success(text string) error {
	return n.sender.SendMessage("✅ "+text, n.userID)
}

func (n *Notifier) Error(text string) error {
	return n.sender.SendMessage("❌ "+text, n.userID)
}

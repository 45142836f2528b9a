// Package mock holds test doubles for the messages package
// collaborators, wired to a minimock controller.
package mock

import (
	"github.com/gojuno/minimock/v3"
)

type MessageSenderMock struct {
	t minimock.Tester

	SendMessageMock  mMessageSenderMockSendMessage
	SendDocumentMock mMessageSenderMockSendDocument
}

func NewMessageSenderMock(t minimock.Tester) *MessageSenderMock {
	m := &MessageSenderMock{t: t}
	m.SendMessageMock.mock = m
	m.SendDocumentMock.mock = m
	return m
}

type sendMessageParams struct {
	text   string
	userID int64
}

type mMessageSenderMockSendMessage struct {
	mock   *MessageSenderMock
	expect *sendMessageParams
	result error
	calls  []sendMessageParams
}

// Expect pins the exact params of the next calls; any mismatch fails
// the test through the controller.
func (mm *mMessageSenderMockSendMessage) Expect(text string, userID int64) *mMessageSenderMockSendMessage {
	mm.expect = &sendMessageParams{text: text, userID: userID}
	return mm
}

func (mm *mMessageSenderMockSendMessage) Return(err error) *MessageSenderMock {
	mm.result = err
	return mm.mock
}

// Sent lists every message text passed so far, in order.
func (mm *mMessageSenderMockSendMessage) Sent() []string {
	texts := make([]string, 0, len(mm.calls))
	for _, c := range mm.calls {
		texts = append(texts, c.text)
	}
	return texts
}

func (m *MessageSenderMock) SendMessage(text string, userID int64) error {
	mm := &m.SendMessageMock
	got := sendMessageParams{text: text, userID: userID}
	mm.calls = append(mm.calls, got)
	if mm.expect != nil && *mm.expect != got {
		m.t.Errorf("MessageSenderMock.SendMessage got (%q, %d), want (%q, %d)",
			text, userID, mm.expect.text, mm.expect.userID)
	}
	return mm.result
}

type sendDocumentParams struct {
	name   string
	userID int64
}

type mMessageSenderMockSendDocument struct {
	mock   *MessageSenderMock
	expect *sendDocumentParams
	result error
	calls  []sendDocumentParams
}

func (mm *mMessageSenderMockSendDocument) Expect(name string, userID int64) *mMessageSenderMockSendDocument {
	mm.expect = &sendDocumentParams{name: name, userID: userID}
	return mm
}

func (mm *mMessageSenderMockSendDocument) Return(err error) *MessageSenderMock {
	mm.result = err
	return mm.mock
}

func (mm *mMessageSenderMockSendDocument) CallsCount() int {
	return len(mm.calls)
}

func (m *MessageSenderMock) SendDocument(name string, _ []byte, userID int64) error {
	mm := &m.SendDocumentMock
	got := sendDocumentParams{name: name, userID: userID}
	mm.calls = append(mm.calls, got)
	if mm.expect != nil && *mm.expect != got {
		m.t.Errorf("MessageSenderMock.SendDocument got (%q, %d), want (%q, %d)",
			name, userID, mm.expect.name, mm.expect.userID)
	}
	return mm.result
}

package mail

import (
	"fmt"
	"html"
	"strings"
	"time"
)

func ResetPassword(to, name, link string, ttl time.Duration) Message {
	mins := int(ttl.Minutes())
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your NextHire password.\n"+
			"Open the link below to choose a new one:\n\n%s\n\n"+
			"This link expires in %d minutes. If you did not ask for it, ignore this email.",
		name, link, mins,
	)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>We received a request to reset your NextHire password.</p>`+
			`<p><a href="%s">Reset your password</a></p>`+
			`<p>This link expires in %d minutes. If you did not ask for it, ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link), mins,
	)
	return Message{To: to, Subject: "Reset your NextHire password", Text: text, HTML: body}
}

type Interview struct {
	Company string
	Role    string
	At      time.Time
}

func InterviewReminder(to, name string, iv Interview) Message {
	when := iv.At.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	what := strings.TrimSpace(iv.Role + " at " + iv.Company)
	text := fmt.Sprintf(
		"Hi %s,\n\nReminder: your interview for %s is scheduled for %s.\n\nGood luck!",
		name, what, when,
	)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Reminder: your interview for <strong>%s</strong> is scheduled for %s.</p><p>Good luck!</p>`,
		html.EscapeString(name), html.EscapeString(what), when,
	)
	return Message{To: to, Subject: "Upcoming interview: " + what, Text: text, HTML: body}
}

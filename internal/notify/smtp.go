package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/completion"
)

const outreachPrompt = `Generate a professional and personalized sales outreach email using this information:

From:
- Name: %s
- Company: %s
- Product/Service: %s

To:
- Company: %s
- Website: %s

Research Insights:
%s

Write a concise, professional email that:
1. Introduces yourself and your company
2. Shows understanding of their business
3. Briefly explains how your product could help them
4. Requests a meeting/call
5. Has a professional signature

Keep it under 200 words and make it sound natural and personalized.`

// outreachTemperature favors varied, natural-sounding drafts.
const outreachTemperature = 0.7

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends new-lead emails over SMTP with a completion-drafted
// outreach email embedded in the body.
type EmailNotifier struct {
	ai   completion.Client
	smtp config.SMTPConfig
	ccfg config.CompletionConfig
	send sendFunc
}

// Option configures the EmailNotifier.
type Option func(*EmailNotifier)

// WithSendFunc replaces the SMTP send function.
func WithSendFunc(f sendFunc) Option {
	return func(n *EmailNotifier) {
		n.send = f
	}
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(ai completion.Client, smtpCfg config.SMTPConfig, ccfg config.CompletionConfig, opts ...Option) *EmailNotifier {
	n := &EmailNotifier{
		ai:   ai,
		smtp: smtpCfg,
		ccfg: ccfg,
		send: smtp.SendMail,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify emails the account owner about the new lead. The outreach draft is
// best-effort: on completion failure a plain template takes its place and the
// notification still goes out.
func (n *EmailNotifier) Notify(ctx context.Context, account model.Account, lead model.Lead, profile model.Profile, insight *model.ResearchInsight) error {
	outreach := n.draftOutreach(ctx, account, lead, profile, insight)
	body := composeBody(account, lead, insight, outreach)

	subject := "New Lead Found: " + lead.CompanyName
	msg := buildMessage(n.smtp.From, account.Email, subject, body)

	addr := fmt.Sprintf("%s:%d", n.smtp.Host, n.smtp.Port)
	auth := smtp.PlainAuth("", n.smtp.From, n.smtp.Password, n.smtp.Host)
	if err := n.send(addr, auth, n.smtp.From, []string{account.Email}, msg); err != nil {
		return eris.Wrap(err, "notify: send email")
	}

	zap.L().Info("notify: lead notification sent",
		zap.String("to", account.Email),
		zap.String("company", lead.CompanyName),
	)
	return nil
}

// draftOutreach asks the completion client for a personalized outreach email.
func (n *EmailNotifier) draftOutreach(ctx context.Context, account model.Account, lead model.Lead, profile model.Profile, insight *model.ResearchInsight) string {
	prompt := fmt.Sprintf(outreachPrompt,
		account.Name,
		account.CompanyName,
		profile.ProductDescription,
		lead.CompanyName,
		lead.CompanyWebsite,
		formatList(append(append([]string{}, insight.Description...), insight.Benefits...)),
	)

	temp := outreachTemperature
	resp, err := n.ai.Complete(ctx, completion.Request{
		Model:       n.ccfg.Model,
		Messages:    []completion.Message{{Role: "user", Content: prompt}},
		MaxTokens:   n.ccfg.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("notify: outreach draft failed, using template", zap.Error(err))
		return fmt.Sprintf("Hi %s team,\n\nI came across %s and thought %s might be a good fit for you. Would you be open to a short call?\n\nBest,\n%s\n%s",
			lead.CompanyName, lead.CompanyWebsite, profile.ProductName, account.Name, account.CompanyName)
	}
	return strings.TrimSpace(resp.Text())
}

func composeBody(account model.Account, lead model.Lead, insight *model.ResearchInsight, outreach string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", account.Name)
	b.WriteString("I found an interesting company that might be worth reaching out to:\n\n")
	fmt.Fprintf(&b, "Company: %s\n", lead.CompanyName)
	fmt.Fprintf(&b, "Website: %s\n", lead.CompanyWebsite)
	fmt.Fprintf(&b, "Contact: %s\n\n", lead.LeadEmail)
	b.WriteString("Here's what I learned about them:\n\n")
	fmt.Fprintf(&b, "What They Do:\n%s\n\n", formatList(insight.Description))
	fmt.Fprintf(&b, "How Your Product Could Help:\n%s\n\n", formatList(insight.Benefits))
	fmt.Fprintf(&b, "Interesting Points for Outreach:\n%s\n\n", formatList(insight.OutreachPoints))
	fmt.Fprintf(&b, "Suggested Outreach Email:\n-------------------\n%s\n-------------------\n\n", outreach)
	b.WriteString("I hope this helps with your outreach! Let me know if you need anything else.\n\n")
	b.WriteString("Best regards,\nYour Sales Assistant\n")
	return b.String()
}

// formatList renders section items as a bulleted block.
func formatList(items []string) string {
	if len(items) == 0 {
		return "Information not available"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Reka Sales Bot <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

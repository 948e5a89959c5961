package notify

import "fmt"

// Slack Block Kit.

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type     string    `json:"type"`
	Text     slackText `json:"text"`
	URL      string    `json:"url,omitempty"`
	ActionID string    `json:"action_id"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type SlackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func mrkdwn(s string) slackText { return slackText{Type: "mrkdwn", Text: s} }
func plain(s string) slackText  { return slackText{Type: "plain_text", Text: s} }

// SlackPayload renders m as a Block Kit message.
func SlackPayload(m *Message) *SlackMessage {
	header := plain(m.title() + " - " + m.Repository)
	msg := &SlackMessage{
		Text: m.title(),
		Blocks: []slackBlock{
			{Type: "header", Text: &header},
			{Type: "section", Fields: []slackText{
				mrkdwn("*Project:* " + m.Repository),
				mrkdwn("*Phase:* " + m.Phase),
				mrkdwn(fmt.Sprintf("*Quality score:* %s %d/100", QualityEmoji(m.QualityScore), m.QualityScore)),
				mrkdwn(fmt.Sprintf("*Overall progress:* %d%%", m.CompletionRate)),
			}},
		},
	}
	if len(m.Decisions) > 0 {
		t := mrkdwn("*🎯 Key decisions:*\n" + bullets(m.Decisions, "\n"))
		msg.Blocks = append(msg.Blocks, slackBlock{Type: "section", Text: &t})
	}
	if len(m.Focus) > 0 {
		t := mrkdwn("*📋 Next phase focus:*\n" + bullets(m.Focus, "\n"))
		msg.Blocks = append(msg.Blocks, slackBlock{Type: "section", Text: &t})
	}

	var buttons []slackElement
	if m.IssueURL != "" {
		buttons = append(buttons, slackElement{Type: "button", Text: plain("📄 Issue"), URL: m.IssueURL, ActionID: "view_issue"})
	}
	if m.Repository != "" {
		buttons = append(buttons, slackElement{Type: "button", Text: plain("📊 Progress dashboard"), URL: m.dashboardURL(), ActionID: "view_progress"})
	}
	if len(buttons) > 0 {
		msg.Blocks = append(msg.Blocks, slackBlock{Type: "actions", Elements: buttons})
	}
	return msg
}

// Teams MessageCard.

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	Facts            []teamsFact `json:"facts,omitempty"`
	Text             string      `json:"text,omitempty"`
	Markdown         bool        `json:"markdown"`
}

type teamsTarget struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

type teamsAction struct {
	Type    string        `json:"@type"`
	Name    string        `json:"name"`
	Targets []teamsTarget `json:"targets"`
}

type TeamsMessage struct {
	Type            string         `json:"@type"`
	Context         string         `json:"@context"`
	ThemeColor      string         `json:"themeColor"`
	Summary         string         `json:"summary"`
	Sections        []teamsSection `json:"sections"`
	PotentialAction []teamsAction  `json:"potentialAction,omitempty"`
}

func openURI(name, uri string) teamsAction {
	return teamsAction{Type: "OpenUri", Name: name, Targets: []teamsTarget{{OS: "default", URI: uri}}}
}

// TeamsPayload renders m as a legacy connector MessageCard.
func TeamsPayload(m *Message) *TeamsMessage {
	msg := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: ThemeColor(m.QualityScore),
		Summary:    fmt.Sprintf("%s phase complete - %s", m.Phase, m.Repository),
		Sections: []teamsSection{{
			ActivityTitle:    m.title(),
			ActivitySubtitle: "Project: " + m.Repository,
			Facts: []teamsFact{
				{Name: "Phase", Value: m.Phase},
				{Name: "Quality score", Value: fmt.Sprintf("%s %d/100", QualityEmoji(m.QualityScore), m.QualityScore)},
				{Name: "Overall progress", Value: fmt.Sprintf("%d%%", m.CompletionRate)},
			},
			Markdown: true,
		}},
	}
	if len(m.Decisions) > 0 {
		msg.Sections = append(msg.Sections, teamsSection{ActivityTitle: "🎯 Key decisions", Text: bullets(m.Decisions, "\n\n"), Markdown: true})
	}
	if len(m.Focus) > 0 {
		msg.Sections = append(msg.Sections, teamsSection{ActivityTitle: "📋 Next phase focus", Text: bullets(m.Focus, "\n\n"), Markdown: true})
	}
	if m.IssueURL != "" {
		msg.PotentialAction = append(msg.PotentialAction, openURI("View issue", m.IssueURL))
	}
	if m.Repository != "" {
		msg.PotentialAction = append(msg.PotentialAction, openURI("Progress dashboard", m.dashboardURL()))
	}
	return msg
}

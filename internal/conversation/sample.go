package conversation

import (
	"fmt"
	"time"
)

// sampleBaseTime anchors generated message timestamps.
var sampleBaseTime = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

// Turn is a role/content pair used to build conversations by hand.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SampleGenerator produces deterministic demo conversations. IDs are
// sequential per generator ("conv_1", "conv_2", ...).
type SampleGenerator struct {
	next int
}

// NewSampleGenerator returns a generator whose first conversation is conv_1.
func NewSampleGenerator() *SampleGenerator {
	return &SampleGenerator{}
}

type sampleScript struct {
	turns []Turn
	meta  Metadata
}

func u(s string) Turn { return Turn{Role: RoleUser, Content: s} }
func a(s string) Turn { return Turn{Role: RoleAssistant, Content: s} }

var sampleScripts = []sampleScript{
	{
		turns: []Turn{
			u("Hi! I'm Sarah and I love programming in TypeScript."),
			a("Hello Sarah! That's great. TypeScript is a powerful language. What kind of projects do you work on?"),
			u("I mainly work on web applications. I really enjoy using React and Next.js."),
			a("Excellent choices! React and Next.js are very popular for modern web development."),
			u("Yeah, and I also like working with graph databases. Neo4j is my favorite."),
			a("Graph databases are fascinating! Neo4j is great for modeling complex relationships."),
			u("I'm also interested in AI and machine learning, especially LLMs."),
			a("AI and LLMs are incredibly exciting fields right now. Are you working on any AI projects?"),
			u("Yes, I'm building a chatbot that uses Claude API. It's for customer support."),
			a("That sounds like a valuable project! Customer support is a great use case for LLMs."),
		},
		meta: Metadata{Topic: "Programming Interests", Participants: []string{"Sarah"}},
	},
	{
		turns: []Turn{
			u("I work with my colleague John on most projects."),
			a("It's great to have a reliable colleague. What does John specialize in?"),
			u("John is really good at backend development. He knows Python and Go very well."),
			a("Python and Go are excellent for backend work. Do you collaborate on the architecture?"),
			u("Yes, we do. My friend Emma also joins us sometimes. She's a UX designer."),
			a("Having a UX designer on the team is valuable. Does Emma work on the same projects?"),
			u("Emma mainly works on the frontend design. She's amazing with Figma."),
			a("Figma is a powerful design tool. It sounds like you have a well-rounded team!"),
			u("We do! John and Emma actually went to the same university."),
			a("That's a nice connection! It probably helps with team dynamics."),
		},
		meta: Metadata{Topic: "Team and Relationships", Participants: []string{"Sarah", "John", "Emma"}},
	},
	{
		turns: []Turn{
			u("I really don't like working with legacy PHP code."),
			a("Legacy code can be challenging. What makes PHP particularly difficult for you?"),
			u("It's just messy and hard to maintain. I much prefer modern frameworks."),
			a("Modern frameworks do tend to have better structure and tooling."),
			u("I also dislike long meetings. They're usually unproductive."),
			a("Many people feel that way. Do you prefer asynchronous communication?"),
			u("Yes! I love using Slack and GitHub for async collaboration."),
			a("Those are great tools for asynchronous work. What about video calls?"),
			u("I don't mind short video calls, but I prefer them to be under 30 minutes."),
			a("That's a reasonable preference. Focused, time-boxed meetings can be effective."),
		},
		meta: Metadata{Topic: "Work Preferences", Participants: []string{"Sarah"}},
	},
	{
		turns: []Turn{
			u("Did you know that TypeScript was created by Microsoft?"),
			a("Yes! Anders Hejlsberg led the development. He also created C#."),
			u("That's right! TypeScript was first released in 2012."),
			a("It's come a long way since then. The type system has become very sophisticated."),
			u("React was created by Facebook, now Meta, in 2013."),
			a("Yes, Jordan Walke created it. It revolutionized frontend development."),
			u("I read that Next.js was created by Vercel in 2016."),
			a("That's correct! It's become one of the most popular React frameworks."),
		},
		meta: Metadata{Topic: "Tech History", Participants: []string{"Sarah"}},
	},
	{
		turns: []Turn{
			u("I started learning programming in 2018."),
			a("That's great! What was your first programming language?"),
			u("I started with JavaScript. Then I moved to TypeScript in 2020."),
			a("That's a natural progression. TypeScript adds a lot of value to JavaScript."),
			u("I joined my current company in January 2022."),
			a("How has your experience been there?"),
			u("It's been great! I got promoted to senior developer in 2023."),
			a("Congratulations on the promotion! That's excellent progress."),
			u("Thanks! I'm planning to attend a tech conference in March 2024."),
			a("Conferences are great for learning and networking. Which one are you attending?"),
		},
		meta: Metadata{Topic: "Career Timeline", Participants: []string{"Sarah"}},
	},
}

// SampleCount is the number of distinct built-in sample conversations.
func SampleCount() int { return len(sampleScripts) }

// Generate returns up to count sample conversations. Counts below one yield
// the default of three.
func (g *SampleGenerator) Generate(count int) []Conversation {
	if count <= 0 {
		count = 3
	}
	if count > len(sampleScripts) {
		count = len(sampleScripts)
	}
	out := make([]Conversation, 0, count)
	for _, s := range sampleScripts[:count] {
		out = append(out, g.Custom(s.turns, s.meta))
	}
	return out
}

// Custom builds a conversation from hand-written turns. Messages are stamped
// one minute apart from a fixed base time.
func (g *SampleGenerator) Custom(turns []Turn, meta Metadata) Conversation {
	g.next++
	msgs := make([]Message, len(turns))
	for i, t := range turns {
		msgs[i] = Message{
			Role:      t.Role,
			Content:   t.Content,
			Timestamp: sampleBaseTime.Add(time.Duration(i) * time.Minute),
		}
	}
	meta.Created = sampleBaseTime
	if len(msgs) > 0 {
		meta.Created = msgs[0].Timestamp
	}
	if meta.Participants != nil {
		meta.Participants = append([]string(nil), meta.Participants...)
	}
	return Conversation{
		ID:       fmt.Sprintf("conv_%d", g.next),
		Messages: msgs,
		Metadata: meta,
	}
}

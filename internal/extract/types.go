package extract

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson     EntityType = "person"
	EntityTopic      EntityType = "topic"
	EntityPreference EntityType = "preference"
	EntityFact       EntityType = "fact"
	EntityEvent      EntityType = "event"
)

// EntityTypes lists every entity type in a stable order.
var EntityTypes = []EntityType{EntityPerson, EntityTopic, EntityPreference, EntityFact, EntityEvent}

// RelationType classifies a derived relationship.
type RelationType string

const (
	RelMentions  RelationType = "mentions"
	RelLikes     RelationType = "likes"
	RelDislikes  RelationType = "dislikes"
	RelKnows     RelationType = "knows"
	RelRelatedTo RelationType = "related_to"
	RelDiscussed RelationType = "discussed"
)

// Entity is a typed, scored mention pulled from a single message.
type Entity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"` // 0.0–1.0
	Context    string     `json:"context"`    // originating message text
}

// Relationship is a directed, scored link between two labels.
type Relationship struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Type     RelationType `json:"type"`
	Strength float64      `json:"strength"` // 0.0–1.0
}

package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides a UUID primary key and timestamps for all entities.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID if none is set.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// StringList stores a slice of strings as a JSON column.
type StringList []string

// Value serializes the list for storage.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the list from storage.
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(b, s)
}

// User is a registered account, created locally or via an OAuth2 provider.
type User struct {
	BaseModel
	Username       string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string `gorm:"size:255" json:"-"`
	FirstName      string `gorm:"size:100" json:"firstName"`
	LastName       string `gorm:"size:100" json:"lastName"`
	Bio            string `gorm:"type:text" json:"bio"`
	ProfilePicture string `gorm:"size:512" json:"profilePicture"`
	CoverPhoto     string `gorm:"size:512" json:"coverPhoto"`
	Provider       string `gorm:"size:50" json:"provider"`
	ProviderID     string `gorm:"size:255" json:"-"`
	Enabled        bool   `gorm:"default:true" json:"enabled"`
	Verified       bool   `gorm:"default:false" json:"verified"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// HasLocalCredentials reports whether the account can log in with a
// password. OAuth2-provisioned accounts carry an empty hash.
func (u *User) HasLocalCredentials() bool {
	return u.Password != ""
}

// Follow records that Follower follows Followed. The pair is unique.
type Follow struct {
	BaseModel
	FollowerID string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowedID string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"followedId"`
	Follower   *User  `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed   *User  `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
}

// Post statuses.
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
)

// Post is an authored piece of content composed of ordered blocks.
type Post struct {
	BaseModel
	AuthorID    string         `gorm:"type:uuid;not null;index" json:"authorId"`
	Author      *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:20;not null;default:PUBLISHED" json:"status"`
	Blocks      []ContentBlock `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"blocks"`
	Comments    []Comment      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Likes       []Like         `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// Content block types.
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"
	BlockTypeVideo = "video"
)

// ContentBlock is one typed, positioned unit of a post body. Image and
// video blocks carry the media URL; video blocks also carry the duration
// in seconds.
type ContentBlock struct {
	BaseModel
	PostID        string `gorm:"type:uuid;not null;index" json:"-"`
	Type          string `gorm:"size:20;not null" json:"type"`
	Content       string `gorm:"type:text" json:"content"`
	URL           string `gorm:"size:512" json:"url,omitempty"`
	VideoDuration int    `json:"videoDuration,omitempty"`
	Position      int    `gorm:"not null" json:"position"`
}

// Comment is a user comment on a post. A non-nil ParentID makes it a reply.
type Comment struct {
	BaseModel
	PostID   string    `gorm:"type:uuid;not null;index" json:"postId"`
	AuthorID string    `gorm:"type:uuid;not null" json:"authorId"`
	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID *string   `gorm:"type:uuid;index" json:"parentId,omitempty"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	Replies  []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// Like records a user liking a post. The pair is unique.
type Like struct {
	BaseModel
	PostID string `gorm:"type:uuid;not null;uniqueIndex:idx_like_pair" json:"postId"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_like_pair" json:"userId"`
}

// Plan is a learning plan: an ordered set of topics and resources owned by a
// user, optionally shared with the community.
type Plan struct {
	BaseModel
	OwnerID            string     `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner              *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title              string     `gorm:"size:255;not null" json:"title"`
	Description        string     `gorm:"type:text" json:"description"`
	StartDate          string     `gorm:"size:50" json:"startDate"`
	EndDate            string     `gorm:"size:50" json:"endDate"`
	Topics             StringList `gorm:"type:jsonb" json:"topics"`
	Resources          StringList `gorm:"type:jsonb" json:"resources"`
	CompletedResources StringList `gorm:"type:jsonb" json:"completedResources"`
	Shared             bool       `gorm:"default:false;index" json:"shared"`
}

// Progress is a user's progress update, optionally tied to a learning plan
// and optionally shared with the community.
type Progress struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID    *string   `gorm:"type:uuid;index" json:"planId,omitempty"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Shared    bool      `gorm:"default:false;index" json:"shared"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
}

// Collaboration statuses.
const (
	CollabStatusActive    = "ACTIVE"
	CollabStatusCompleted = "COMPLETED"
	CollabStatusCancelled = "CANCELLED"
)

// Collaboration is a scheduled mentorship session between a mentor and a
// mentee.
type Collaboration struct {
	BaseModel
	MentorID        string    `gorm:"type:uuid;not null;index" json:"mentorId"`
	Mentor          *User     `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	MenteeID        string    `gorm:"type:uuid;not null;index" json:"menteeId"`
	Mentee          *User     `gorm:"foreignKey:MenteeID" json:"mentee,omitempty"`
	Topic           string    `gorm:"size:255;not null" json:"topic"`
	Description     string    `gorm:"type:text" json:"description"`
	ScheduledAt     time.Time `gorm:"not null" json:"scheduledAt"`
	DurationMinutes int       `gorm:"not null" json:"durationMinutes"`
	Status          string    `gorm:"size:20;not null;default:ACTIVE" json:"status"`
}

// Notification types. MENTION has no producer yet; the client already
// renders it.
const (
	NotificationLike    = "LIKE"
	NotificationComment = "COMMENT"
	NotificationReply   = "REPLY"
	NotificationFollow  = "FOLLOW"
	NotificationMention = "MENTION"
)

// Notification is a persisted event addressed to a single recipient.
type Notification struct {
	BaseModel
	RecipientID string `gorm:"type:uuid;not null;index" json:"recipientId"`
	ActorID     string `gorm:"type:uuid;not null" json:"actorId"`
	Actor       *User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type        string `gorm:"size:20;not null" json:"type"`
	Message     string `gorm:"size:512;not null" json:"message"`
	PostID      string `gorm:"type:uuid" json:"postId,omitempty"`
	Read        bool   `gorm:"default:false" json:"read"`
}

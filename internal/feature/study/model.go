package study

import "time"

// 学习内容模型，全部按归属人（OwnerID）隔离，经 ez.Crud 挂载

type Note struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string `gorm:"index;size:36;not null" json:"-"`
	Title   string `gorm:"size:128;not null" json:"title" binding:"required,max=128"`
	Content string `gorm:"type:text" json:"content"`
	Subject string `gorm:"size:64" json:"subject,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Note) TableName() string { return "notes" }

type Deck struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string `gorm:"index;size:36;not null" json:"-"`
	Title       string `gorm:"size:128;not null" json:"title" binding:"required,max=128"`
	Description string `gorm:"size:512" json:"description,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Deck) TableName() string { return "decks" }

type Card struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string `gorm:"index;size:36;not null" json:"-"`
	DeckID  string `gorm:"index;size:36;not null" json:"deckId" binding:"required"`
	Front   string `gorm:"type:text;not null" json:"front" binding:"required"`
	Back    string `gorm:"type:text" json:"back"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Card) TableName() string { return "cards" }

type Quiz struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string `gorm:"index;size:36;not null" json:"-"`
	Title   string `gorm:"size:128;not null" json:"title" binding:"required,max=128"`
	// 题目以 JSON 文本整体存取，结构由客户端约定
	Questions string `gorm:"type:text" json:"questions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Quiz) TableName() string { return "quizzes" }

type Event struct {
	ID      string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID string    `gorm:"index;size:36;not null" json:"-"`
	Title   string    `gorm:"size:128;not null" json:"title" binding:"required,max=128"`
	StartAt time.Time `gorm:"index" json:"startAt" binding:"required"`
	EndAt   time.Time `json:"endAt"`
	Notes   string    `gorm:"size:512" json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Event) TableName() string { return "events" }

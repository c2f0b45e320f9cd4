package study

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studyhub/internal/core/cache"
	"studyhub/internal/transport/http/ez"
	resp "studyhub/internal/transport/http/response"
)

// Module 学习内容（笔记/卡组/卡片/测验/日程）。
// 走路由注册器挂到鉴权分组，CRUD 全部由 ez.Crud 生成
type Module struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewModule(db *gorm.DB, c *cache.Cache) *Module {
	return &Module{db: db, cache: c}
}

func (m *Module) MountAPI(g *gin.RouterGroup) {
	ez.Crud(ez.CrudConfig[Note]{
		DB: m.db, Group: g, Path: "/notes",
		New:     func() *Note { return &Note{} },
		OrderBy: "updated_at DESC",
	})
	ez.Crud(ez.CrudConfig[Deck]{
		DB: m.db, Group: g, Path: "/decks",
		New: func() *Deck { return &Deck{} },
	})
	ez.Crud(ez.CrudConfig[Card]{
		DB: m.db, Group: g, Path: "/cards",
		New: func() *Card { return &Card{} },
		Hooks: ez.CrudHooks[Card]{
			// 卡片只能挂在自己的卡组下
			BeforeCreate: func(c *gin.Context, card *Card) error {
				var n int64
				uid := c.GetString("userId")
				if err := m.db.WithContext(c).Model(&Deck{}).
					Where("id = ? AND owner_id = ?", card.DeckID, uid).Count(&n).Error; err != nil {
					return err
				}
				if n == 0 {
					return errDeckNotOwned
				}
				return nil
			},
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if deck := c.Query("deckId"); deck != "" {
					q = q.Where("deck_id = ?", deck)
				}
				return q
			},
		},
	})
	ez.Crud(ez.CrudConfig[Quiz]{
		DB: m.db, Group: g, Path: "/quizzes",
		New: func() *Quiz { return &Quiz{} },
	})
	ez.Crud(ez.CrudConfig[Event]{
		DB: m.db, Group: g, Path: "/events",
		New:     func() *Event { return &Event{} },
		OrderBy: "start_at ASC",
	})

	// GET /study/summary 面板计数，redis 短缓存 + singleflight 合并回源
	g.GET("/study/summary", m.summary)
}

type summaryOut struct {
	Notes   int64 `json:"notes"`
	Decks   int64 `json:"decks"`
	Cards   int64 `json:"cards"`
	Quizzes int64 `json:"quizzes"`
	Events  int64 `json:"events"`
}

func (m *Module) summary(c *gin.Context) {
	uid := c.GetString("userId")
	if uid == "" {
		ez.WriteError(c, ez.Unauthorized("unauthorized"))
		return
	}
	load := func(ctx context.Context) (*summaryOut, error) {
		var out summaryOut
		db := m.db.WithContext(ctx)
		for _, it := range []struct {
			model any
			dst   *int64
		}{
			{&Note{}, &out.Notes},
			{&Deck{}, &out.Decks},
			{&Card{}, &out.Cards},
			{&Quiz{}, &out.Quizzes},
			{&Event{}, &out.Events},
		} {
			if err := db.Model(it.model).Where("owner_id = ?", uid).Count(it.dst).Error; err != nil {
				return nil, err
			}
		}
		return &out, nil
	}

	var out *summaryOut
	var err error
	if m.cache != nil {
		out, err = cache.GetOrLoadJSON[summaryOut](m.cache, c, "study:summary:"+uid, 30*time.Second, load)
	} else {
		out, err = load(c)
	}
	if err != nil {
		ez.WriteError(c, ez.Internal("summary failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(out))
}

type deckOwnershipError struct{}

func (deckOwnershipError) Error() string { return "deck not found" }

var errDeckNotOwned = deckOwnershipError{}

// Models 自动迁移用
func Models() []any {
	return []any{&Note{}, &Deck{}, &Card{}, &Quiz{}, &Event{}}
}

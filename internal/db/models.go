package db

import (
	"encoding/json"
	"time"
)

// Article maps news.articles. One row per stored article; merged-away
// duplicates are deleted outright and their provenance folded into the
// canonical row's source_list / occurrence_count.
type Article struct {
	ArticleID          string          `gorm:"column:article_id;type:text;primaryKey"`
	Title              string          `gorm:"column:title;type:text;not null"`
	ContentPreview     string          `gorm:"column:content_preview;type:text;not null;default:''"`
	URL                string          `gorm:"column:url;type:text;not null"`
	Source             string          `gorm:"column:source;type:text;not null"`
	PublishedAt        time.Time       `gorm:"column:published_at;type:timestamptz;not null"`
	Category           *string         `gorm:"column:category;type:text"`
	CategoryConfidence *float64        `gorm:"column:category_confidence;type:double precision"`
	Embedding          *string         `gorm:"column:embedding;type:vector(1024)"`
	Processed          bool            `gorm:"column:processed;not null;default:false"`
	ProcessedAt        *time.Time      `gorm:"column:processed_at;type:timestamptz"`
	DeduplicatedAt     *time.Time      `gorm:"column:deduplicated_at;type:timestamptz"`
	SourceList         json.RawMessage `gorm:"column:source_list;type:jsonb;not null"`
	OccurrenceCount    int             `gorm:"column:occurrence_count;type:integer;not null;default:1"`
	Highlight          bool            `gorm:"column:highlight;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "news.articles" }

func autoMigrateModels() []any {
	return []any{
		&Article{},
	}
}

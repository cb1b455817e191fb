package model

import (
	"time"
)

const (
	// CategoryTVAnime is the category id releases must carry to be matched.
	CategoryTVAnime = 5070

	// NZBStatusAdded marks a release whose NZB has been imported and is ready for post-processing.
	NZBStatusAdded = 1
)

// Release 代表一个已入库的 Usenet 发布 (由外部抓取写入)
type Release struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	SearchName   string    `json:"search_name"`                             // 清洗后的可搜索名称
	AniDBID      *int      `gorm:"column:anidb_id;index" json:"anidb_id"`   // NULL=未处理, >0=AniDB ID, <0=失败原因
	CategoriesID int       `gorm:"index" json:"categories_id"`              // 分类 (5070 = TV Anime)
	NZBStatus    int       `gorm:"column:nzbstatus;index" json:"nzbstatus"` // NZB 状态
	PostDate     time.Time `gorm:"column:postdate;index" json:"postdate"`   // 发布时间
}

// AnimeTitle AniDB 标题索引 (来自 anime-titles.dat)
type AnimeTitle struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	AniDBID int    `gorm:"column:anidb_id;index" json:"anidb_id"`
	Type    string `json:"type"` // main, synonym, short, official
	Lang    string `json:"lang"`
	Title   string `gorm:"index" json:"title"`
}

func (AnimeTitle) TableName() string { return "anidb_titles" }

// AnimeInfo 番剧级别的元数据 (由 AniDB HTTP API 填充)
type AnimeInfo struct {
	AniDBID      int        `gorm:"column:anidb_id;primaryKey;autoIncrement:false" json:"anidb_id"`
	Type         string     `json:"type"`
	EpisodeCount int        `json:"episode_count"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Description  string     `json:"description"`
	Rating       float64    `json:"rating"`
	Picture      string     `json:"picture"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (AnimeInfo) TableName() string { return "anidb_info" }

// AnimeEpisode 单集信息
type AnimeEpisode struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	AniDBID      int        `gorm:"column:anidb_id;uniqueIndex:idx_anidb_episode" json:"anidb_id"`
	EpisodeNo    int        `gorm:"uniqueIndex:idx_anidb_episode" json:"episode_no"`
	EpisodeTitle string     `json:"episode_title"`
	Airdate      *time.Time `json:"airdate"`
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`
}

func (AnimeEpisode) TableName() string { return "anidb_episodes" }

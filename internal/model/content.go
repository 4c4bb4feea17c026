package model

import "time"

// PostStatus はブログ記事の公開状態を表す。
// draft -> submitted -> published の順に遷移する。
// 公開読み取りエンドポイントにはpublishedのみが表示される。
type PostStatus string

const (
	// PostStatusDraft は下書き。著者本人のみ閲覧できる。
	PostStatusDraft PostStatus = "draft"
	// PostStatusSubmitted は提出済み。著者本人のみ閲覧できる。
	PostStatusSubmitted PostStatus = "submitted"
	// PostStatusPublished は公開済み。
	PostStatusPublished PostStatus = "published"
)

// BlogPost はキャストメンバーが執筆するブログ記事を表す。
// AuthorIDはcast_members.idを参照する（users.idではない）。
type BlogPost struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string // サニタイズ済みHTML
	Status    PostStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Episode は番組エピソードを表す。
// VideoPathとThumbnailPathはオブジェクトストレージ上の正規化済みパス。
type Episode struct {
	ID            string
	AuthorID      string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
	AirDate       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Dossier は教育者向けの資料パケットを表す。
type Dossier struct {
	ID           string
	Title        string
	DocumentPath string
	CreatedAt    time.Time
}

// ApplicationKind は公開フォームの応募種別を表す。
type ApplicationKind string

const (
	ApplicationSummiteer  ApplicationKind = "summiteer"
	ApplicationGuest      ApplicationKind = "guest"
	ApplicationVolunteer  ApplicationKind = "volunteer"
	ApplicationContact    ApplicationKind = "contact"
	ApplicationNewsletter ApplicationKind = "newsletter"
)

// ValidApplicationKind は応募種別が定義済みかどうかを返す。
func ValidApplicationKind(k ApplicationKind) bool {
	switch k {
	case ApplicationSummiteer, ApplicationGuest, ApplicationVolunteer,
		ApplicationContact, ApplicationNewsletter:
		return true
	}
	return false
}

// Application は公開フォームから送信された応募・問い合わせを表す。
// Payloadは種別ごとに異なる追加フィールドをJSONで保持する。
type Application struct {
	ID        string
	Kind      ApplicationKind
	Name      string
	Email     string
	Payload   []byte
	CreatedAt time.Time
}

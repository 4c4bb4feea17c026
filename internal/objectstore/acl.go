package objectstore

// Permission はオブジェクトへのアクセス権限種別を表す。
type Permission string

const (
	// PermissionRead は読み取り権限。
	PermissionRead Permission = "read"
	// PermissionWrite は書き込み権限。writeはreadを包含する。
	PermissionWrite Permission = "write"
)

// Visibility はオブジェクトの公開範囲を表す。
type Visibility string

const (
	// VisibilityPublic は誰でも読み取り可能（書き込みは不可）。
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate は所有者とACLルールで許可された者のみアクセス可能。
	VisibilityPrivate Visibility = "private"
)

// AccessGroupKind はアクセスグループの種別を表す閉じたバリアント。
// 新しい種別の追加はContainsのswitchへの追加を必須とする。
type AccessGroupKind string

const (
	// GroupEveryone は全認証済みユーザーを含むグループ。
	GroupEveryone AccessGroupKind = "everyone"
	// GroupSpecificUsers は明示的に列挙されたユーザーIDのグループ。
	GroupSpecificUsers AccessGroupKind = "specificUsers"
)

// AccessGroup はACLルールの対象グループを表す。
type AccessGroup struct {
	Kind AccessGroupKind `json:"kind"`
	// IDs はGroupSpecificUsersのメンバー一覧。他の種別では空。
	IDs []string `json:"ids,omitempty"`
}

// Contains は指定ユーザーがグループのメンバーかどうかを返す。
// 未知の種別は常にfalse（拒否側に倒す）。
func (g AccessGroup) Contains(userID string) bool {
	switch g.Kind {
	case GroupEveryone:
		return userID != ""
	case GroupSpecificUsers:
		for _, id := range g.IDs {
			if id == userID {
				return true
			}
		}
		return false
	}
	return false
}

// ACLRule はグループへの権限付与を表す。
type ACLRule struct {
	Group      AccessGroup `json:"group"`
	Permission Permission  `json:"permission"`
}

// ObjectPolicy はオブジェクトに付与するアクセス制御ポリシー。
// オブジェクトストレージのメタデータとして永続化される。
// ポリシーを持たないオブジェクトは所有者以外に対してすべて拒否となる。
type ObjectPolicy struct {
	Owner      string     `json:"owner"`
	Visibility Visibility `json:"visibility"`
	Rules      []ACLRule  `json:"aclRules,omitempty"`
}

// NewOwnerPolicy は所有者のみアクセス可能なプライベートポリシーを生成する。
func NewOwnerPolicy(owner string) *ObjectPolicy {
	return &ObjectPolicy{
		Owner:      owner,
		Visibility: VisibilityPrivate,
	}
}

// CanAccess はポリシーに対するアクセス可否を判定する純粋関数。
// userIDが空文字列の場合は匿名アクセスとして扱う。
// 評価順序（最初に一致した時点で確定）:
//  1. ポリシーなし → 拒否
//  2. public かつ read要求 → 無条件許可（匿名含む）
//  3. 匿名 → 拒否
//  4. 所有者 → 許可（常にフルアクセス）
//  5. ACLルールのグループに所属し、付与権限が要求を満たす → 許可
//  6. それ以外 → 拒否
func CanAccess(userID string, policy *ObjectPolicy, requested Permission) bool {
	if policy == nil {
		return false
	}
	if policy.Visibility == VisibilityPublic && requested == PermissionRead {
		return true
	}
	if userID == "" {
		return false
	}
	if policy.Owner == userID {
		return true
	}
	for _, rule := range policy.Rules {
		if rule.Group.Contains(userID) && permissionSatisfies(rule.Permission, requested) {
			return true
		}
	}
	return false
}

// permissionSatisfies は付与権限が要求権限を満たすかを返す。
// writeはreadを包含する。readはwriteを満たさない。
func permissionSatisfies(granted, requested Permission) bool {
	if granted == PermissionWrite {
		return true
	}
	return granted == PermissionRead && requested == PermissionRead
}

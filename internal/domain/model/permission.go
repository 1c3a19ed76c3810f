package model

// resource:action 形式の権限文字列。
const (
	PermLandingView   = "landing:view"
	PermLandingUpdate = "landing:update"
	PermMediaUpload   = "media:upload"
	PermMediaViewAll  = "media:view:all"
	PermMediaDelete   = "media:delete"
	PermCustomersRead = "customers:read"
	PermCustomersEdit = "customers:edit"
	PermOrdersView    = "orders:view"
	PermOrdersUpdate  = "orders:update"
	PermProductsEdit  = "products:edit"
)

// ロールごとの権限。ADMINは全権限。
var rolePermissions = map[Role]map[string]bool{
	RoleStaff: {
		PermLandingView:   true,
		PermLandingUpdate: true,
		PermMediaUpload:   true,
		PermCustomersRead: true,
		PermOrdersView:    true,
	},
	RoleUser: {},
}

func RoleHasPermission(role Role, perm string) bool {
	if role == RoleAdmin {
		return true
	}
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// ワイルドカード（ADMIN用）
const PermAll = "*"

// ロールの権限セットを返す。認証時に一度だけ解決してcontextへ載せる用。
func PermissionsForRole(role Role) map[string]bool {
	if role == RoleAdmin {
		return map[string]bool{PermAll: true}
	}

	perms := map[string]bool{}
	for p, ok := range rolePermissions[role] {
		if ok {
			perms[p] = true
		}
	}
	return perms
}

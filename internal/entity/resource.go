package entity

// Role is the position a raw URL string was discovered in on a rendered page.
type Role int

const (
	RolePageLink Role = iota
	RoleStylesheet
	RoleImage
	RoleVideo
	RoleScript
)

func (r Role) String() string {
	switch r {
	case RolePageLink:
		return "page-link"
	case RoleStylesheet:
		return "stylesheet"
	case RoleImage:
		return "image"
	case RoleVideo:
		return "video"
	case RoleScript:
		return "script"
	default:
		return "unknown"
	}
}

// ResourceCategory decides which pipeline a discovered URL enters.
type ResourceCategory int

const (
	CategorySkip ResourceCategory = iota
	CategoryPage
	CategoryStylesheet
	CategoryImage
	CategoryVideo
	CategoryScript
)

func (c ResourceCategory) String() string {
	switch c {
	case CategoryPage:
		return "page"
	case CategoryStylesheet:
		return "stylesheet"
	case CategoryImage:
		return "image"
	case CategoryVideo:
		return "video"
	case CategoryScript:
		return "script"
	default:
		return "skip"
	}
}

// IsAsset reports whether the category is downloaded directly rather than traversed.
func (c ResourceCategory) IsAsset() bool {
	switch c {
	case CategoryStylesheet, CategoryImage, CategoryVideo, CategoryScript:
		return true
	}
	return false
}

// CategoryForRole maps a discovery role to the category it yields when in scope.
func CategoryForRole(r Role) ResourceCategory {
	switch r {
	case RolePageLink:
		return CategoryPage
	case RoleStylesheet:
		return CategoryStylesheet
	case RoleImage:
		return CategoryImage
	case RoleVideo:
		return CategoryVideo
	case RoleScript:
		return CategoryScript
	}
	return CategorySkip
}

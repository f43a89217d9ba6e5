package icons

// ID names an icon independently of how it is drawn.
type ID string

const (
	Dashboard    ID = "dashboard"
	Statistics   ID = "statistics"
	Organization ID = "organization"
	Role         ID = "role"
	SignOut      ID = "sign_out"
	Alert        ID = "alert"
)

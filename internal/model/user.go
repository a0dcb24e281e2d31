package model

type User struct {
	ID         string `json:"id"`
	GoogleID   string `json:"google_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	PictureURL string `json:"picture_url"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}

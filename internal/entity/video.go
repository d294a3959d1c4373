package entity

type Comment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type Video struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Class              string    `json:"class"`
	Subject            string    `json:"subject"`
	URL                string    `json:"url"`
	LikesCount         int       `json:"likesCount"`
	LikedByCurrentUser bool      `json:"likedByCurrentUser"`
	Comments           []Comment `json:"comments"`
}

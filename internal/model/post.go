package model

import "time"

// AuthorRef は記事に埋め込む著者参照を表す。
// IDは所有権チェックに使う安定識別子で、作成後は不変。
type AuthorRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Post はブログ記事を表す。
// Authorは作成時に認証済みクレームから導出され、更新では変更されない。
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    AuthorRef `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

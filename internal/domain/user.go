package domain

import "time"

type User struct {
	ID               string    `db:"id" bson:"_id" json:"id"`
	RemoteUserID     string    `db:"remote_user_id" bson:"remote_user_id" json:"remote_user_id"`
	ScreenName       string    `db:"screen_name" bson:"screen_name" json:"screen_name"`
	OAuthToken       string    `db:"oauth_token" bson:"oauth_token" json:"-"`
	OAuthTokenSecret string    `db:"oauth_token_secret" bson:"oauth_token_secret" json:"-"`
	CreatedAt        time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// Collection is a named board a user files favorites into.
type Collection struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	OwnerID   string    `db:"owner_id" bson:"owner_id" json:"owner_id"`
	Name      string    `db:"name" bson:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"created_at"`
}

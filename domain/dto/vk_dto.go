package dto

// PublishTarget is the immutable per-operation identity passed into every VK
// call: the freshly-ensured token plus the resolved owner id. No client
// state is mutated between concurrent messages.
type PublishTarget struct {
	AccessToken string
	OwnerID     int64
	FromGroup   bool
}

// UploadOptions carries media-kind specific metadata for VK uploads.
type UploadOptions struct {
	FileName  string
	Title     string
	Performer string
}

// WallPostRequest mirrors the wall.post parameter set.
type WallPostRequest struct {
	OwnerID     int64  `url:"owner_id"`
	FromGroup   int    `url:"from_group"`
	Message     string `url:"message"`
	Attachments string `url:"attachments,omitempty"`
	Copyright   string `url:"copyright,omitempty"`
}

// WallEditRequest mirrors the wall.edit parameter set.
type WallEditRequest struct {
	OwnerID     int64  `url:"owner_id"`
	PostID      int64  `url:"post_id"`
	Message     string `url:"message"`
	Attachments string `url:"attachments,omitempty"`
	Copyright   string `url:"copyright,omitempty"`
}

// TelegramFile is the metadata Telegram reports for a stored file.
type TelegramFile struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// ChatInfo is the subset of getChat the router needs.
type ChatInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Title    string `json:"title,omitempty"`
}

package study

type KeyPosition struct {
	ID          string `json:"id" bson:"id" yaml:"id"`
	FEN         string `json:"fen" bson:"fen" yaml:"fen"`
	Description string `json:"description" bson:"description" yaml:"description"`
}

type Course struct {
	ID           string        `json:"id" bson:"_id" yaml:"id"`
	Title        string        `json:"title" bson:"title" yaml:"title"`
	Description  string        `json:"description" bson:"description" yaml:"description"`
	VideoURL     string        `json:"video_url" bson:"video_url" yaml:"video_url"`
	Tags         []string      `json:"tags" bson:"tags" yaml:"tags"`
	KeyPositions []KeyPosition `json:"key_positions" bson:"key_positions" yaml:"key_positions"`
}

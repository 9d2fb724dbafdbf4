package models

// ClassSummary describes one class directory
type ClassSummary struct {
	Code   string `json:"code"`
	Images int    `json:"images"`
	Bytes  int64  `json:"bytes"`
	Size   string `json:"size"`
}

// ClassDetail lists the images of one class directory
type ClassDetail struct {
	Code   string      `json:"code"`
	Images []ImageItem `json:"images"`
}

// ImageItem represents a downloaded image
type ImageItem struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Bytes       int64  `json:"bytes"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
}

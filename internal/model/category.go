package model

// Category is a fixed classification bucket. Each category maps to one
// target folder in the drive plus an optional index-service path, both
// configured through settings.
type Category string

const (
	CategoryTV      Category = "tv"
	CategoryMovie   Category = "movie"
	CategoryVariety Category = "variety"
	CategoryAnime   Category = "anime"
	CategoryOther   Category = "other"
)

var Categories = []Category{
	CategoryTV,
	CategoryMovie,
	CategoryVariety,
	CategoryAnime,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

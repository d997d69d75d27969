package pipeline

import "github.com/khaledhikmat/ecovision-go/model"

// COCO class names mapped to recycling buckets.
var categoryMap = map[string]model.Category{
	"bottle":   model.Plastic,
	"cup":      model.Plastic,
	"can":      model.Metal,
	"banana":   model.Organic,
	"apple":    model.Organic,
	"orange":   model.Organic,
	"broccoli": model.Organic,
	"carrot":   model.Organic,
	"sandwich": model.Organic,
	"book":     model.Paper,
	"vase":     model.Glass,
}

// CategoryOf never drops a label: anything unmapped lands in Trash.
func CategoryOf(label string) model.Category {
	if category, ok := categoryMap[label]; ok {
		return category
	}
	return model.Trash
}

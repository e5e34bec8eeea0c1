package domain

// Category описывает категорию объявления.
type Category string

// CategoryAll — служебное значение «все категории».
const CategoryAll Category = "Tous"

const (
	CategoryObjects     Category = "Objets"
	CategoryServices    Category = "Services"
	CategoryElectronics Category = "Électronique"
	CategoryFashion     Category = "Mode"
	CategoryHome        Category = "Maison"
	CategorySport       Category = "Sport"
	CategoryLeisure     Category = "Loisirs"
)

var categories = []Category{
	CategoryObjects,
	CategoryServices,
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategorySport,
	CategoryLeisure,
}

// Categories возвращает фиксированный список категорий в порядке отображения.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid сообщает, входит ли категория в фиксированный список.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidFilter допускает также CategoryAll.
func (c Category) ValidFilter() bool {
	return c == CategoryAll || c.Valid()
}

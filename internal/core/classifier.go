package core

const (
	BucketEssential Bucket = "essential"
	BucketVariable  Bucket = "variable"
	BucketOther     Bucket = "other"
)

// Bucket is the spending class a category label resolves to.
type Bucket string

var (
	DefaultEssentialCategories = []string{"Rent", "Utilities", "Healthcare"}
	DefaultVariableCategories  = []string{"Dining", "Shopping", "Entertainment"}
)

// Classifier maps category labels to buckets by exact, case-sensitive match
// against two configured sets. A label present in both sets is Essential.
type Classifier struct {
	essential map[string]struct{}
	variable  map[string]struct{}
}

func NewClassifier(essential, variable []string) *Classifier {
	return &Classifier{
		essential: toSet(essential),
		variable:  toSet(variable),
	}
}

// DefaultClassifier uses DefaultEssentialCategories and DefaultVariableCategories.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultEssentialCategories, DefaultVariableCategories)
}

func (c *Classifier) Classify(label string) Bucket {
	if _, ok := c.essential[label]; ok {
		return BucketEssential
	}
	if _, ok := c.variable[label]; ok {
		return BucketVariable
	}
	return BucketOther
}

// EssentialCategories returns the configured essential labels, sorted.
func (c *Classifier) EssentialCategories() []string {
	return sortedKeys(c.essential)
}

// VariableCategories returns the configured variable labels, sorted.
func (c *Classifier) VariableCategories() []string {
	return sortedKeys(c.variable)
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	return set
}

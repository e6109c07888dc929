package log

import "finstress/internal/core"

// Structured log field names.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldSnapshotID   = "snapshot_id"
	FieldBudgetID     = "budget_id"
	FieldStressScore  = "stress_score"
	FieldIncomeCents  = "income_cents"
	FieldFixedCents   = "fixed_cents"
	FieldVariableKeys = "variable_categories"
	FieldTransactions = "transactions"
	FieldModel        = "model"
	FieldCacheHit     = "cache_hit"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalysis  = "analysis"
	ComponentBudget    = "budget"
	ComponentReceipt   = "receipt"
	ComponentRecommend = "recommend"
	ComponentAI        = "ai"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

const (
	OpAggregate = "aggregate"
	OpScore     = "score"
	OpNormalize = "normalize"
	OpExtract   = "extract"
	OpStructure = "structure"
	OpRecommend = "recommend"
	OpExport    = "export"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// Fields is a small builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithSnapshot records the headline numbers of a snapshot without dumping
// the whole structure.
func (f Fields) WithSnapshot(s core.FinancialSnapshot) Fields {
	f[FieldYear] = s.Year
	f[FieldMonth] = s.Month
	f[FieldIncomeCents] = s.Income.Cents
	f[FieldFixedCents] = s.FixedExpenses.Cents
	f[FieldVariableKeys] = len(s.VariableExpenses)
	if s.StressScore != nil {
		f[FieldStressScore] = *s.StressScore
	}
	return f
}

func (f Fields) WithHTTP(method, path string, status int, durationMs int64) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice flattens the fields for slog's variadic API.
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}

package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mtr-normalizer/internal/classification"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/okpd2"
	"github.com/Veraticus/mtr-normalizer/internal/service"
	"github.com/Veraticus/mtr-normalizer/internal/validation"
)

type classifierFunc func(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome) (*model.ClassificationOutcome, error)

func (f classifierFunc) Classify(ctx context.Context, product *model.Product, category model.Category, research *model.ResearchOutcome) (*model.ClassificationOutcome, error) {
	return f(ctx, product, category, research)
}

type validatorFunc func(product *model.Product) model.ValidationOutcome

func (f validatorFunc) Validate(_ context.Context, product *model.Product, _ model.Category, _ *model.ResearchOutcome, _ *model.ClassificationOutcome) model.ValidationOutcome {
	return f(product)
}

type detectorFunc func(name string) (model.Category, float64)

func (f detectorFunc) Detect(name string) (model.Category, float64) {
	return f(name)
}

type countingProgress struct {
	mu    sync.Mutex
	seen  map[string]int
	total int
}

func (c *countingProgress) Advance(product *model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = make(map[string]int)
	}
	c.seen[product.ID]++
	c.total++
}

type inFlightProbe struct {
	stage   Stage
	current atomic.Int32
	peak    atomic.Int32
}

func (p *inFlightProbe) Enter(stage Stage) {
	if stage != p.stage {
		return
	}
	n := p.current.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (p *inFlightProbe) Exit(stage Stage) {
	if stage == p.stage {
		p.current.Add(-1)
	}
}

func acceptAll() validatorFunc {
	return func(*model.Product) model.ValidationOutcome { return model.ValidationOutcome{Valid: true} }
}

func fixedClassifier(code string) classifierFunc {
	return func(context.Context, *model.Product, model.Category, *model.ResearchOutcome) (*model.ClassificationOutcome, error) {
		return &model.ClassificationOutcome{Code: code, Level: 4, Confidence: 0.9}, nil
	}
}

func fastConfig() Config {
	return Config{
		BatchSize:     10,
		Workers:       4,
		MaxRetries:    3,
		CallTimeout:   time.Second,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
	}
}

func newEndToEndPipeline(t *testing.T, oracle *MockOracle, progress Progress) *Pipeline {
	t.Helper()
	finder := okpd2.NewFinder(okpd2.FinderOptions{
		Sources: []service.CandidateSource{okpd2.NewCatalog(nil)},
	})
	t.Cleanup(finder.Close)

	return New(Dependencies{
		Detector:   classification.NewDefaultDetector(),
		Research:   oracle,
		Classifier: okpd2.NewClassifier(finder, nil),
		Validator:  validation.NewValidator(nil, oracle, time.Second, nil),
		Progress:   progress,
	}, fastConfig())
}

func TestNew_Defaults(t *testing.T) {
	p := New(Dependencies{}, Config{})
	assert.Equal(t, DefaultConfig(), p.Config())

	p = New(Dependencies{}, Config{Workers: 7})
	assert.Equal(t, 7, p.Config().Workers)
	assert.Equal(t, 10, p.Config().BatchSize)
}

func TestPipeline_Process_EndToEnd(t *testing.T) {
	oracle := NewMockOracle()
	progress := &countingProgress{}
	pipeline := newEndToEndPipeline(t, oracle, progress)

	products := []*model.Product{
		model.NewProduct("MTR-001", "Датчик давления ОВЕН ПД100И-ДГ0.25-111-0.5", "шт", ""),
		model.NewProduct("MTR-002", "Круг стальной горячекатаный В1-II 10ММ ГОСТ 2590-2006 СТ3СП", "т", ""),
		model.NewProduct("MTR-003", "Молоток-гвоздодер Gross 10605 450г фиберглас", "шт", ""),
		model.NewProduct("MTR-004", "Шина зимняя Nokian Tyres Hakkapeliitta R5 SUV 265/65 R17", "шт", ""),
		model.NewProduct("MTR-005", "Болт М12х50 оцинкованный", "шт", ""),
	}

	results, stats := pipeline.Process(context.Background(), products)
	require.Len(t, results, len(products))

	for i := range products {
		assert.Same(t, products[i], results[i], "input order is preserved")
		assert.False(t, results[i].ProcessedAt.IsZero())
	}

	tests := []struct {
		category model.Category
		code     string
		unit     string
	}{
		{model.CategoryPressureSensor, "26.51.52.110", "штука"},
		{model.CategorySteelCircle, "24.10.75.111", "тонна"},
		{model.CategoryHammer, "25.73.30.123", "штука"},
		{model.CategoryTire, "22.11.11.000", "штука"},
	}
	for i, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			p := results[i]
			assert.Equal(t, tt.category, p.Category)
			assert.Equal(t, model.StatusCompleted, p.Status, p.ErrorMessage)
			assert.Equal(t, tt.code, p.OKPD2Code)
			assert.Equal(t, tt.unit, p.NormalizedUnit)
			assert.Equal(t, model.CommentNormalized, p.Comment)
			assert.NotEmpty(t, p.Specifications["manufacturer"])
			assert.Greater(t, p.ConfidenceScore, 0.5)
		})
	}

	bolt := results[4]
	assert.Equal(t, model.CategoryUnknown, bolt.Category)
	assert.Equal(t, model.StatusRejected, bolt.Status)
	assert.Equal(t, validation.ReasonNoOKPD2, bolt.Comment)
	assert.NotEmpty(t, bolt.ErrorMessage)
	assert.Equal(t, "шт", bolt.NormalizedUnit)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Successful)
	assert.Equal(t, 1, stats.Rejected)
	assert.Zero(t, stats.Failed)
	assert.Len(t, stats.Batches, 5)
	assert.InDelta(t, 0.8, stats.SuccessRate(), 1e-9)

	assert.Equal(t, 5, progress.total)
	for _, n := range progress.seen {
		assert.Equal(t, 1, n)
	}
	assert.Len(t, oracle.GetCalls(), 5)
}

func TestPipeline_Process_PresetCategorySkipsDetection(t *testing.T) {
	var detected []string
	detector := detectorFunc(func(name string) (model.Category, float64) {
		detected = append(detected, name)
		return model.CategoryHammer, 0.9
	})

	preset := model.NewProduct("A", "Шина летняя", "шт", "")
	preset.Category = model.CategoryTire
	preset.DetectionConfidence = 1
	auto := model.NewProduct("B", "Молоток", "шт", "")

	var researched sync.Map
	research := service.ResearchOracleFunc(func(_ context.Context, p *model.Product, c model.Category) (*model.ResearchOutcome, error) {
		researched.Store(p.InternalCode, c)
		return &model.ResearchOutcome{Manufacturer: "x"}, nil
	})

	pipeline := New(Dependencies{
		Detector:   detector,
		Research:   research,
		Classifier: fixedClassifier("25.73.30.123"),
		Validator:  acceptAll(),
	}, fastConfig())

	_, _ = pipeline.Process(context.Background(), []*model.Product{preset, auto})

	assert.Equal(t, []string{"Молоток"}, detected)
	assert.Equal(t, model.CategoryTire, preset.Category)
	assert.Equal(t, model.CategoryHammer, auto.Category)

	c, _ := researched.Load("A")
	assert.Equal(t, model.CategoryTire, c)
	c, _ = researched.Load("B")
	assert.Equal(t, model.CategoryHammer, c)
}

func TestPipeline_Process_WorkerBound(t *testing.T) {
	probe := &inFlightProbe{stage: StageResearch}
	research := service.ResearchOracleFunc(func(ctx context.Context, _ *model.Product, _ model.Category) (*model.ResearchOutcome, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
		return &model.ResearchOutcome{Manufacturer: "Nokian"}, nil
	})

	config := fastConfig()
	config.Workers = 3
	pipeline := New(Dependencies{
		Research:   research,
		Classifier: fixedClassifier("22.11.11.000"),
		Validator:  acceptAll(),
		Probe:      probe,
	}, config)

	products := make([]*model.Product, 9)
	for i := range products {
		products[i] = model.NewProduct("T", "Шина", "шт", "")
		products[i].Category = model.CategoryTire
	}

	_, stats := pipeline.Process(context.Background(), products)
	assert.Equal(t, 9, stats.Successful)
	assert.LessOrEqual(t, probe.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, probe.peak.Load(), int32(2))
	assert.Zero(t, probe.current.Load())
}

func TestPipeline_Process_BatchesRunSequentially(t *testing.T) {
	var mu sync.Mutex
	var order []model.Category
	research := service.ResearchOracleFunc(func(_ context.Context, _ *model.Product, c model.Category) (*model.ResearchOutcome, error) {
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, c)
		mu.Unlock()
		return &model.ResearchOutcome{}, nil
	})

	config := fastConfig()
	config.BatchSize = 2
	pipeline := New(Dependencies{
		Research:   research,
		Classifier: fixedClassifier("25.73.30.123"),
		Validator:  acceptAll(),
	}, config)

	categories := []model.Category{
		model.CategoryHammer, model.CategoryTire, model.CategoryHammer,
		model.CategoryHammer, model.CategoryTire,
	}
	products := make([]*model.Product, len(categories))
	for i, c := range categories {
		products[i] = model.NewProduct("X", "item", "шт", "")
		products[i].Category = c
	}

	_, stats := pipeline.Process(context.Background(), products)

	ids := make([]string, 0, len(stats.Batches))
	for _, b := range stats.Batches {
		ids = append(ids, b.ID)
		assert.Equal(t, b.TotalCount, b.ProcessedCount)
		assert.False(t, b.FinishedAt.Before(b.StartedAt))
	}
	assert.Equal(t, []string{"HAMMER_0", "HAMMER_1", "TIRE_0"}, ids)
	assert.Equal(t, []model.Category{
		model.CategoryHammer, model.CategoryHammer, model.CategoryHammer,
		model.CategoryTire, model.CategoryTire,
	}, order)
}

func TestPipeline_Process_Retries(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int32
		want      model.ProcessingStatus
	}{
		{name: "transient then success", failures: 2, err: common.ErrOracleUnavailable, wantCalls: 3, want: model.StatusCompleted},
		{name: "exhausted", failures: 5, err: common.ErrOracleUnavailable, wantCalls: 3, want: model.StatusFailed},
		{name: "permanent", failures: 5, err: common.Permanent(errors.New("bad request")), wantCalls: 1, want: model.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			research := service.ResearchOracleFunc(func(context.Context, *model.Product, model.Category) (*model.ResearchOutcome, error) {
				if int(calls.Add(1)) <= tt.failures {
					return nil, tt.err
				}
				return &model.ResearchOutcome{}, nil
			})

			pipeline := New(Dependencies{
				Research:   research,
				Classifier: fixedClassifier("25.73.30.123"),
				Validator:  acceptAll(),
			}, fastConfig())

			product := model.NewProduct("R", "Молоток", "шт", "")
			product.Category = model.CategoryHammer
			_, _ = pipeline.Process(context.Background(), []*model.Product{product})

			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.want, product.Status)
			if tt.want == model.StatusFailed {
				assert.Contains(t, product.ErrorMessage, "research:")
			}
		})
	}
}

func TestPipeline_Process_CallTimeout(t *testing.T) {
	oracle := NewMockOracle()
	oracle.SetDelay(time.Second)

	config := fastConfig()
	config.CallTimeout = 10 * time.Millisecond
	config.MaxRetries = 1
	pipeline := New(Dependencies{
		Research:   oracle,
		Classifier: fixedClassifier("25.73.30.123"),
		Validator:  acceptAll(),
	}, config)

	product := model.NewProduct("S", "Молоток", "шт", "")
	product.Category = model.CategoryHammer

	start := time.Now()
	_, stats := pipeline.Process(context.Background(), []*model.Product{product})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, model.StatusFailed, product.Status)
	assert.Contains(t, product.ErrorMessage, context.DeadlineExceeded.Error())
}

func TestPipeline_Process_FailureIsolation(t *testing.T) {
	oracle := NewMockOracle()
	oracle.FailOn("Молоток сломанный", common.Permanent(errors.New("not found")))
	oracle.PanicOn("Молоток паникующий")

	pipeline := New(Dependencies{
		Research:   oracle,
		Classifier: fixedClassifier("25.73.30.123"),
		Validator:  acceptAll(),
	}, fastConfig())

	names := []string{"Молоток слесарный", "Молоток сломанный", "Молоток паникующий", "Молоток столярный"}
	products := make([]*model.Product, len(names))
	for i, n := range names {
		products[i] = model.NewProduct("I", n, "шт", "")
		products[i].Category = model.CategoryHammer
	}

	_, stats := pipeline.Process(context.Background(), products)

	assert.Equal(t, model.StatusCompleted, products[0].Status)
	assert.Equal(t, model.StatusFailed, products[1].Status)
	assert.Contains(t, products[1].ErrorMessage, "not found")
	assert.Equal(t, model.StatusFailed, products[2].Status)
	assert.Contains(t, products[2].ErrorMessage, "internal error")
	assert.Equal(t, model.StatusCompleted, products[3].Status)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Batches[0].FailedCount)
}

func TestPipeline_Process_ClassificationError(t *testing.T) {
	classifier := classifierFunc(func(context.Context, *model.Product, model.Category, *model.ResearchOutcome) (*model.ClassificationOutcome, error) {
		return nil, common.Permanent(errors.New("registry down"))
	})
	pipeline := New(Dependencies{
		Research:   NewMockOracle(),
		Classifier: classifier,
		Validator:  acceptAll(),
	}, fastConfig())

	product := model.NewProduct("C", "Молоток", "шт", "")
	product.Category = model.CategoryHammer
	_, _ = pipeline.Process(context.Background(), []*model.Product{product})

	assert.Equal(t, model.StatusFailed, product.Status)
	assert.Contains(t, product.ErrorMessage, "classification: registry down")
	assert.Equal(t, "Зубр", product.Specifications["manufacturer"])
}

func TestPipeline_Process_NilClassification(t *testing.T) {
	var calls atomic.Int32
	classifier := classifierFunc(func(context.Context, *model.Product, model.Category, *model.ResearchOutcome) (*model.ClassificationOutcome, error) {
		calls.Add(1)
		return nil, nil
	})
	pipeline := New(Dependencies{
		Research:   NewMockOracle(),
		Classifier: classifier,
		Validator:  acceptAll(),
	}, fastConfig())

	product := model.NewProduct("N", "Молоток", "шт", "")
	product.Category = model.CategoryHammer
	_, stats := pipeline.Process(context.Background(), []*model.Product{product})

	assert.Equal(t, model.StatusFailed, product.Status)
	assert.Contains(t, product.ErrorMessage, "classifier returned no outcome")
	assert.Equal(t, int32(1), calls.Load(), "a missing outcome is not retried")
	assert.Equal(t, 1, stats.Failed)
}

func TestPipeline_Process_Rejection(t *testing.T) {
	validator := validatorFunc(func(*model.Product) model.ValidationOutcome {
		return model.ValidationOutcome{
			RejectionReason: validation.ReasonIncompleteSpecs,
			Issues:          []string{"one", "two"},
		}
	})
	pipeline := New(Dependencies{
		Research:   NewMockOracle(),
		Classifier: fixedClassifier("25.73.30.123"),
		Validator:  validator,
	}, fastConfig())

	product := model.NewProduct("V", "Молоток", "ШТ.", "")
	product.Category = model.CategoryHammer
	_, stats := pipeline.Process(context.Background(), []*model.Product{product})

	assert.Equal(t, model.StatusRejected, product.Status)
	assert.Equal(t, validation.ReasonIncompleteSpecs, product.Comment)
	assert.Equal(t, "one; two", product.ErrorMessage)
	assert.Equal(t, "штука", product.NormalizedUnit)
	assert.Empty(t, product.OKPD2Code)
	assert.Equal(t, 1, stats.Rejected)
}

func TestPipeline_Process_Empty(t *testing.T) {
	pipeline := New(Dependencies{}, fastConfig())
	results, stats := pipeline.Process(context.Background(), nil)
	assert.Empty(t, results)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.Batches)
}

func TestNormalizedUnit(t *testing.T) {
	tests := []struct {
		original string
		category model.Category
		want     string
	}{
		{"шт", model.CategoryHammer, "штука"},
		{"Шт.", model.CategoryTire, "штука"},
		{"тн", model.CategorySteelCircle, "тонна"},
		{"кг", model.CategorySteelCircle, "кг"},
		{"шт", model.CategoryUnknown, "шт"},
	}
	for _, tt := range tests {
		t.Run(tt.original+"/"+string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizedUnit(tt.original, tt.category))
		})
	}
}

func TestRunStats_GetDisplay(t *testing.T) {
	assert.JSONEq(t, `{"message":"No products to process"}`, RunStats{}.GetDisplay())

	stats := RunStats{Total: 4, Successful: 3, Failed: 1, Elapsed: 1500 * time.Millisecond}
	assert.JSONEq(t, `{
		"elapsed": "1.5s",
		"total": 4,
		"successful": 3,
		"rejected": 0,
		"failed": 1,
		"batches": 0,
		"success_percent": 75
	}`, stats.GetDisplay())
}

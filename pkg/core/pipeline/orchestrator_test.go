package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/ingest"
	"finreport_analyzer/pkg/core/llm"
	"finreport_analyzer/pkg/core/narrative"
	"finreport_analyzer/pkg/core/prompt"
	"finreport_analyzer/pkg/core/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockExecutor struct {
	mu        sync.Mutex
	Responses map[string]string
	Err       error
	Calls     []string
	Prompts   [][]llm.Message
}

func (m *MockExecutor) ExecutePrompt(ctx context.Context, agentType string, messages []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, agentType)
	m.Prompts = append(m.Prompts, messages)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Responses[agentType], nil
}

func (m *MockExecutor) GetActiveProvider() string { return "mock" }

type MockObserver struct {
	mu     sync.Mutex
	Stages []Stage
	Failed []Stage
}

func (m *MockObserver) ObserveStage(stage Stage, elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stages = append(m.Stages, stage)
	if err != nil {
		m.Failed = append(m.Failed, stage)
	}
}

func newOrchestrator(cfg Config, opts ...Option) *Orchestrator {
	opts = append([]Option{WithPrompts(prompt.NewRegistry())}, opts...)
	return New(cfg, zerolog.Nop(), opts...)
}

var healthyMetrics = map[string]float64{
	"Revenue":          1000,
	"PriorRevenue":     800,
	"NetIncome":        200,
	"Equity":           1000,
	"TotalAssets":      2500,
	"TotalLiabilities": 1000,
}

const statementText = `
營業收入總計：15,000,000,000
營業利益 3,000,000,000
本期淨利： 1,200,000,000
資產總計 20,000,000,000
負債總計 12,000,000,000
權益總額 8,000,000,000
`

// --- Tests ---

func TestRunMetrics_RuleBasedOnly(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff})
	res, err := o.RunMetrics(context.Background(), healthyMetrics)
	require.NoError(t, err)

	assert.Equal(t, narrative.Recommend, res.Verdict)
	assert.InDelta(t, 0.2, res.Indicators["ROE"], 1e-9)
	assert.InDelta(t, 0.4, res.Indicators["DebtRatio"], 1e-9)
	assert.InDelta(t, 0.25, res.Indicators["RevenueGrowth"], 1e-9)
	assert.Equal(t, res.FinancialSummary, res.Summary)
	assert.NotEmpty(t, res.Summary)

	require.Len(t, res.Analysis, 5)
	assert.Equal(t, res.Report.Profitability.Text(), res.Analysis[narrative.KeyProfitability])
	assert.Contains(t, res.Rendered, "=== 財務分析報告 ===")
	assert.Empty(t, res.ID)
}

func TestRunMetrics_NoLLMWhenExecutorMissing(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMSections})
	res, err := o.RunMetrics(context.Background(), healthyMetrics)
	require.NoError(t, err)
	assert.Empty(t, res.Provider)
	assert.Empty(t, res.Report.RiskAssessment.Refinement)
}

func TestRunMetrics_EmptyIsTotal(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff})
	res, err := o.RunMetrics(context.Background(), map[string]float64{})
	require.NoError(t, err)
	assert.Equal(t, narrative.Watch, res.Verdict)
	assert.NotEmpty(t, res.Defaulted)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "未能提取")
	for _, key := range narrative.SectionKeys {
		assert.NotEmpty(t, res.Analysis[key], key)
	}
}

func TestRunMetrics_StrictCollision(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff, Strict: true})
	_, err := o.RunMetrics(context.Background(), map[string]float64{"Revenue": 1, "營收": 2})

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageExtract, stageErr.Stage)
	var collision *calc.CollisionError
	assert.True(t, errors.As(err, &collision))
}

func TestRunMetrics_Unrecognized(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff})
	res, err := o.RunMetrics(context.Background(), map[string]float64{"Revenue": 1, "自訂指標": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"自訂指標"}, res.Unrecognized)
}

func TestRunText_SectionsMode(t *testing.T) {
	exec := &MockExecutor{Responses: map[string]string{
		agent.AgentSummary:  "  營收穩定成長。 ",
		agent.AgentAnalysis: "完整分析內容",
		agent.AgentSection:  "```markdown\n**重點**：維持觀察\n```",
	}}
	obs := &MockObserver{}
	o := newOrchestrator(Config{LLM: LLMSections}, WithLLM(exec), WithObserver(obs))

	res, err := o.RunText(context.Background(), statementText)
	require.NoError(t, err)

	assert.Equal(t, []string{
		agent.AgentSummary, agent.AgentAnalysis,
		agent.AgentSection, agent.AgentSection, agent.AgentSection, agent.AgentSection, agent.AgentSection,
	}, exec.Calls)
	assert.Equal(t, "營收穩定成長。", res.TextSummary)
	assert.Equal(t, res.FinancialSummary+"\n\n詳細分析：\n營收穩定成長。", res.Summary)
	assert.Equal(t, "mock", res.Provider)

	// the full analysis prompt sees the combined summary and indicators
	full := exec.Prompts[1][1].Content
	assert.Contains(t, full, "詳細分析：\n營收穩定成長。")
	assert.Contains(t, full, "股東權益報酬率: 15.00%")

	// each section prompt narrows the full analysis
	assert.Contains(t, exec.Prompts[2][1].Content, `"獲利能力分析"`)
	assert.Contains(t, exec.Prompts[6][1].Content, `"投資建議"`)
	assert.Contains(t, exec.Prompts[6][1].Content, "完整分析內容")

	for _, key := range narrative.SectionKeys {
		assert.Equal(t, "**重點**：維持觀察", res.Analysis[key], key)
	}
	assert.Contains(t, obs.Stages, StageTextSummary)
	assert.Contains(t, obs.Stages, StageAnalysis)
	assert.Empty(t, obs.Failed)
}

func TestRunText_StructuredMode(t *testing.T) {
	exec := &MockExecutor{Responses: map[string]string{
		agent.AgentSummary: "摘要",
		agent.AgentStructured: "```json\n{\"profitability\": \"獲利\", \"financial_structure\": \"結構\", " +
			"\"operational_efficiency\": \"效率\", \"risk_assessment\": \"風險\", \"investment_advice\": \"建議\",}\n```",
	}}
	o := newOrchestrator(Config{LLM: LLMStructured}, WithLLM(exec))

	res, err := o.RunText(context.Background(), statementText)
	require.NoError(t, err)
	assert.Equal(t, []string{agent.AgentSummary, agent.AgentStructured}, exec.Calls)
	structuredPrompt := exec.Prompts[1][len(exec.Prompts[1])-1].Content
	assert.Contains(t, structuredPrompt, `"required": ["profitability"`)
	assert.Equal(t, "獲利", res.Analysis[narrative.KeyProfitability])
	assert.Equal(t, "建議", res.Analysis[narrative.KeyInvestmentAdvice])
	assert.Contains(t, res.Rendered, "五、投資建議分析\n建議")
}

func TestRunMetrics_StructuredModeIncomplete(t *testing.T) {
	exec := &MockExecutor{Responses: map[string]string{
		agent.AgentStructured: `{"profitability": "only"}`,
	}}
	o := newOrchestrator(Config{LLM: LLMStructured}, WithLLM(exec))
	_, err := o.RunMetrics(context.Background(), healthyMetrics)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageAnalysis, stageErr.Stage)
}

func TestRun_LLMFailureIsStageError(t *testing.T) {
	exec := &MockExecutor{Err: &llm.ServiceError{Provider: "openai", Code: "OPENAI_API_ERROR", Status: 500, Body: "down"}}
	obs := &MockObserver{}
	o := newOrchestrator(Config{}, WithLLM(exec), WithObserver(obs))

	_, err := o.RunText(context.Background(), statementText)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageTextSummary, stageErr.Stage)
	assert.ErrorIs(t, err, llm.ErrServiceError)
	assert.True(t, strings.HasPrefix(err.Error(), "文本摘要生成錯誤: "))
	assert.Equal(t, []Stage{StageTextSummary}, obs.Failed)
}

func TestRunMetrics_SkipsTextSummary(t *testing.T) {
	exec := &MockExecutor{Responses: map[string]string{agent.AgentAnalysis: "a", agent.AgentSection: "s"}}
	o := newOrchestrator(Config{}, WithLLM(exec))
	res, err := o.RunMetrics(context.Background(), healthyMetrics)
	require.NoError(t, err)
	assert.Equal(t, agent.AgentAnalysis, exec.Calls[0])
	assert.Equal(t, res.FinancialSummary, res.Summary)
}

func TestRunDocument_ParseErrors(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff})

	_, err := o.RunText(context.Background(), "   ")
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageParse, stageErr.Stage)
	assert.ErrorIs(t, err, ingest.ErrEmptyDocument)

	_, err = o.RunDocument(context.Background(), "report.doc", []byte("x"))
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageParse, stageErr.Stage)
}

func TestRunDocument_TablesModeRequiresStatements(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff, Extraction: ExtractTables})
	_, err := o.RunText(context.Background(), statementText)

	var unrecognized *ingest.UnrecognizedStatementError
	require.True(t, errors.As(err, &unrecognized))
}

func TestRunDocument_AutoFallsBackToText(t *testing.T) {
	o := newOrchestrator(Config{LLM: LLMOff})
	res, err := o.RunText(context.Background(), statementText)
	require.NoError(t, err)
	assert.InDelta(t, 1.5e10, res.Indicators["Revenue"], 1e-3)
	assert.Contains(t, res.Warnings, "未能辨識財務報表表格，僅使用文字擷取結果")
}

func TestRunDocument_HTMLTablesWin(t *testing.T) {
	html := `<html><body><h3>合併損益表</h3><table>
<tr><th>項目</th><th>2023</th><th>2022</th></tr>
<tr><td>營業收入</td><td>1,500</td><td>1,200</td></tr>
<tr><td>本期淨利</td><td>150</td><td>100</td></tr>
</table></body></html>`
	o := newOrchestrator(Config{LLM: LLMOff})
	res, err := o.RunDocument(context.Background(), "report.html", []byte(html))
	require.NoError(t, err)

	assert.Equal(t, []string{ingest.IncomeStatement.String()}, res.Statements)
	assert.InDelta(t, 1500, res.Indicators["Revenue"], 1e-9)
	assert.InDelta(t, 0.25, res.Indicators["RevenueGrowth"], 1e-9)
	assert.NotContains(t, res.Warnings, "未能辨識財務報表表格，僅使用文字擷取結果")
}

func TestRun_PersistsResult(t *testing.T) {
	repo, err := store.NewFileReportRepo(t.TempDir())
	require.NoError(t, err)
	o := newOrchestrator(Config{LLM: LLMOff}, WithRepository(repo))

	res, err := o.RunMetrics(context.Background(), healthyMetrics)
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	rec, err := repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, string(narrative.Recommend), rec.Verdict)

	var stored Result
	require.NoError(t, json.Unmarshal(rec.Report, &stored))
	assert.Equal(t, res.ID, stored.ID)
	assert.Equal(t, rec.ID, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.True(t, stored.CreatedAt.Equal(rec.CreatedAt))
	assert.Equal(t, narrative.Recommend, stored.Verdict)
}

func TestNew_Defaults(t *testing.T) {
	o := New(Config{}, zerolog.Nop())
	cfg := o.Config()
	assert.Equal(t, ExtractAuto, cfg.Extraction)
	assert.Equal(t, LLMSections, cfg.LLM)
	assert.Equal(t, 3000, cfg.MaxPromptTokens)
	assert.Equal(t, 3*time.Minute, cfg.LLMTimeout)
}

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"wallet-chronicle/internal/config"
	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/llm"
	"wallet-chronicle/internal/llm/stub"
	"wallet-chronicle/internal/storage/memory"
)

const wallet = "0xTestWallet"

// dayStart is 2024-03-01 00:00 UTC.
const dayStart int64 = 1709251200

func transferTx(id string, day, hour int, usd float64) domain.Transaction {
	return domain.Transaction{
		NativeID:  id,
		Timestamp: dayStart + int64(day)*86400 + int64(hour)*3600,
		Chain:     "eth",
		Type:      domain.TxTypeTransfer,
		Transfer: &domain.TransferDetails{
			Symbol:    "ETH",
			Amount:    1,
			AmountUSD: usd,
			From:      "0xaaaaaaaaaaaaaaaaaaaa",
			To:        "0xbbbbbbbbbbbbbbbbbbbb",
		},
	}
}

var promptDateRe = regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2})`)

// scriptNarratives makes the stub answer narrative prompts with one
// deterministic day section per date mentioned in the transaction list,
// so identical prompts always produce identical parts.
func scriptNarratives(client *stub.Client) {
	client.CompleteFunc = func(_ context.Context, req llm.Request) (string, error) {
		if !strings.Contains(req.System, "DeFi transaction analyst") {
			return "stub compression", nil
		}
		_, txSection, _ := strings.Cut(req.User, "## Transactions to analyze:")

		var b strings.Builder
		seen := map[string]bool{}
		for _, m := range promptDateRe.FindAllStringSubmatch(txSection, -1) {
			date := m[1]
			if seen[date] {
				continue
			}
			seen[date] = true
			fmt.Fprintf(&b, "### %s\n\n- transfers happened\n\n**Day summary:** moved funds on %s\n**Importance: 2**\n\n", date, date)
		}
		return strings.TrimSpace(b.String()), nil
	}
}

type testEnv struct {
	runner *Runner
	client *stub.Client
	txs    *memory.TransactionStore
	states *memory.StateStore
	repos  *memory.ReportStore
}

func newTestEnv(t *testing.T, cfg config.Pipeline) *testEnv {
	t.Helper()

	client := stub.NewClient()
	scriptNarratives(client)

	env := &testEnv{
		client: client,
		txs:    memory.NewTransactionStore(),
		states: memory.NewStateStore(),
		repos:  memory.NewReportStore(),
	}

	runner, err := NewRunner(Options{
		Transactions: env.txs,
		States:       env.states,
		Reports:      env.repos,
		LLM:          client,
		Config:       cfg,
	})
	if err != nil {
		t.Fatal(err)
	}
	env.runner = runner
	return env
}

func TestAnalyzeFreshWallet(t *testing.T) {
	env := newTestEnv(t, config.Default())
	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 500),
		transferTx("b", 0, 12, 700),
		transferTx("c", 1, 9, 300),
	})

	res, err := env.runner.Analyze(context.Background(), wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewTransactions != 3 || res.TotalChunks != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if n := env.client.CallCount(); n != 1 {
		t.Errorf("expected 1 narrative call, got %d", n)
	}

	report, ok := env.repos.Report(wallet)
	if !ok {
		t.Fatal("report not saved")
	}
	if !strings.HasPrefix(report, "# Wallet chronology "+wallet) {
		t.Errorf("missing report title: %q", report)
	}
	if !strings.Contains(report, "### 2024-03-01") || !strings.Contains(report, "### 2024-03-02") {
		t.Errorf("report missing day sections: %q", report)
	}

	state, err := env.states.LoadState(context.Background(), wallet)
	if err != nil {
		t.Fatal(err)
	}
	if state.ChunkIndex != 0 || len(state.PendingTxKeys) != 0 {
		t.Errorf("final state not committed: %+v", state)
	}
	if len(state.ProcessedTxKeys) != 3 {
		t.Errorf("expected 3 processed keys, got %d", len(state.ProcessedTxKeys))
	}
}

func TestAnalyzeUnchangedHistoryMakesNoCalls(t *testing.T) {
	env := newTestEnv(t, config.Default())
	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 500),
		transferTx("b", 1, 12, 700),
	})

	ctx := context.Background()
	if _, err := env.runner.Analyze(ctx, wallet, Period{}); err != nil {
		t.Fatal(err)
	}
	calls := env.client.CallCount()

	res, err := env.runner.Analyze(ctx, wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewTransactions != 0 {
		t.Errorf("expected no new transactions, got %d", res.NewTransactions)
	}
	if env.client.CallCount() != calls {
		t.Errorf("rerun on unchanged history made %d extra calls", env.client.CallCount()-calls)
	}
}

func TestAnalyzeIncrementalRun(t *testing.T) {
	env := newTestEnv(t, config.Default())
	ctx := context.Background()

	env.txs.Seed(wallet, []domain.Transaction{transferTx("a", 0, 10, 500)})
	if _, err := env.runner.Analyze(ctx, wallet, Period{}); err != nil {
		t.Fatal(err)
	}

	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 500),
		transferTx("d", 5, 10, 900),
	})
	res, err := env.runner.Analyze(ctx, wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewTransactions != 1 {
		t.Fatalf("expected 1 new transaction, got %d", res.NewTransactions)
	}

	report, _ := env.repos.Report(wallet)
	if !strings.Contains(report, "### 2024-03-01") || !strings.Contains(report, "### 2024-03-06") {
		t.Errorf("report should cover both runs: %q", report)
	}
}

func TestAnalyzeResumeProducesIdenticalReport(t *testing.T) {
	history := []domain.Transaction{
		transferTx("a", 0, 9, 500),
		transferTx("b", 0, 11, 600),
		transferTx("c", 1, 10, 700),
		transferTx("d", 2, 9, 800),
		transferTx("e", 2, 15, 900),
	}

	cfg := config.Default()
	cfg.ChunkMaxTransactions = 2 // days of 2,1,2 txs -> three chunks

	ctx := context.Background()

	// Control: uninterrupted run.
	control := newTestEnv(t, cfg)
	control.txs.Seed(wallet, history)
	if _, err := control.runner.Analyze(ctx, wallet, Period{}); err != nil {
		t.Fatal(err)
	}
	wantReport, _ := control.repos.Report(wallet)

	// Crashing run: the second narrative call fails.
	env := newTestEnv(t, cfg)
	env.txs.Seed(wallet, history)
	inner := env.client.CompleteFunc
	narrativeCalls := 0
	env.client.CompleteFunc = func(ctx context.Context, req llm.Request) (string, error) {
		if strings.Contains(req.System, "DeFi transaction analyst") {
			narrativeCalls++
			if narrativeCalls == 2 {
				return "", errors.New("connection reset")
			}
		}
		return inner(ctx, req)
	}

	_, err := env.runner.Analyze(ctx, wallet, Period{})
	if err == nil {
		t.Fatal("expected failure on second chunk")
	}

	state, err := env.states.LoadState(ctx, wallet)
	if err != nil {
		t.Fatal(err)
	}
	if state.ChunkIndex != 1 || len(state.PendingTxKeys) != 5 {
		t.Fatalf("checkpoint should hold at chunk 1 with full pending batch: %+v", state)
	}

	res, err := env.runner.Analyze(ctx, wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Resumed {
		t.Error("second run should resume the interrupted batch")
	}

	gotReport, _ := env.repos.Report(wallet)
	if gotReport != wantReport {
		t.Errorf("resumed report differs from uninterrupted run:\n--- want ---\n%s\n--- got ---\n%s", wantReport, gotReport)
	}
}

func TestAnalyzeMigratesLegacyState(t *testing.T) {
	env := newTestEnv(t, config.Default())
	ctx := context.Background()

	// A checkpoint written by a version without key tracking, over a
	// history whose every transaction now falls under the dust
	// threshold. With no processed keys and no survivors there is
	// nothing new to narrate, only the state format to migrate.
	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 0.4),
		transferTx("b", 1, 10, 0.2),
	})

	oldPart := domain.ChronologyPart("### 2024-03-01\n\nold narrative\n\n**Day summary:** old\n**Importance: 2**")
	legacy := domain.NewAnalysisState()
	legacy.ChronologyParts = []domain.ChronologyPart{oldPart}
	if err := env.states.SaveState(ctx, wallet, legacy); err != nil {
		t.Fatal(err)
	}

	res, err := env.runner.Analyze(ctx, wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Migrated {
		t.Fatal("expected legacy-state migration")
	}
	if n := env.client.CallCount(); n != 0 {
		t.Errorf("migration must not call the LLM, got %d calls", n)
	}

	state, err := env.states.LoadState(ctx, wallet)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.PendingTxKeys) != 0 || state.ChunkIndex != 0 {
		t.Errorf("migrated state not reset: %+v", state)
	}
	if len(state.ChronologyParts) != 1 || state.ChronologyParts[0] != oldPart {
		t.Errorf("migration must preserve the narrative, got %v", state.ChronologyParts)
	}

	// A genuinely new transaction narrates normally afterwards.
	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 0.4),
		transferTx("b", 1, 10, 0.2),
		transferTx("c", 2, 10, 900),
	})
	res, err = env.runner.Analyze(ctx, wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Migrated || res.NewTransactions != 1 {
		t.Errorf("unexpected rerun result: %+v", res)
	}
	if n := env.client.CallCount(); n != 1 {
		t.Errorf("expected 1 narrative call on rerun, got %d", n)
	}
	report, ok := env.repos.Report(wallet)
	if !ok || !strings.Contains(report, "old narrative") || !strings.Contains(report, "2024-03-03") {
		t.Errorf("report should keep the old part and add the new day: %q", report)
	}
}

func TestAnalyzeReportsProgress(t *testing.T) {
	client := stub.NewClient()
	scriptNarratives(client)

	txs := memory.NewTransactionStore()
	txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 500),
		transferTx("b", 1, 10, 600),
		transferTx("c", 2, 10, 700),
	})

	cfg := config.Default()
	cfg.ChunkMaxTransactions = 1

	var got [][3]int
	runner, err := NewRunner(Options{
		Transactions: txs,
		States:       memory.NewStateStore(),
		Reports:      memory.NewReportStore(),
		LLM:          client,
		Config:       cfg,
		Progress: func(chunk, total, percent int) {
			got = append(got, [3]int{chunk, total, percent})
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := runner.Analyze(context.Background(), wallet, Period{}); err != nil {
		t.Fatal(err)
	}

	want := [][3]int{
		{1, 3, 0}, {1, 3, 33},
		{2, 3, 33}, {2, 3, 66},
		{3, 3, 66}, {3, 3, 100},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d progress reports, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAnalyzePeriodFilter(t *testing.T) {
	env := newTestEnv(t, config.Default())
	env.txs.Seed(wallet, []domain.Transaction{
		transferTx("a", 0, 10, 500),
		transferTx("b", 5, 10, 600),
		transferTx("c", 10, 10, 700),
	})

	from := time.Unix(dayStart+4*86400, 0).UTC()
	to := time.Unix(dayStart+6*86400, 0).UTC()
	res, err := env.runner.Analyze(context.Background(), wallet, Period{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if res.FilteredTransactions != 1 || res.NewTransactions != 1 {
		t.Errorf("period filter not applied: %+v", res)
	}

	report, _ := env.repos.Report(wallet)
	if !strings.Contains(report, "### 2024-03-06") {
		t.Errorf("report missing in-period day: %q", report)
	}
	if strings.Contains(report, "### 2024-03-01") || strings.Contains(report, "### 2024-03-11") {
		t.Errorf("report includes out-of-period days: %q", report)
	}
}

func TestAnalyzeDropsDustAndContractInteractions(t *testing.T) {
	env := newTestEnv(t, config.Default())

	dust := transferTx("dust", 0, 8, 0.5)
	contract := domain.Transaction{
		NativeID:  "ci",
		Timestamp: dayStart + 9*3600,
		Chain:     "eth",
		Type:      domain.TxTypeContractInteraction,
	}
	nft := domain.Transaction{
		NativeID:    "nft",
		Timestamp:   dayStart + 10*3600,
		Chain:       "eth",
		Type:        domain.TxTypeNFTTransfer,
		NFTTransfer: &domain.NFTTransferDetails{Name: "Punk", TokenID: "42"},
	}

	env.txs.Seed(wallet, []domain.Transaction{dust, contract, nft})

	res, err := env.runner.Analyze(context.Background(), wallet, Period{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RawTransactions != 3 || res.FilteredTransactions != 1 {
		t.Errorf("expected only the NFT transfer to survive: %+v", res)
	}
}

func TestAnalyzeWritesContextArtifact(t *testing.T) {
	env := newTestEnv(t, config.Default())
	env.txs.Seed(wallet, []domain.Transaction{transferTx("a", 0, 10, 500)})

	if _, err := env.runner.Analyze(context.Background(), wallet, Period{}); err != nil {
		t.Fatal(err)
	}

	artifact, ok := env.repos.Context(wallet)
	if !ok {
		t.Fatal("context artifact not saved")
	}
	if !strings.HasPrefix(artifact, "# LLM context for chunk 1/1") {
		t.Errorf("unexpected artifact header: %q", artifact)
	}
	if !strings.Contains(artifact, "start of the analysis") {
		t.Errorf("first chunk should see the empty-history context: %q", artifact)
	}
}

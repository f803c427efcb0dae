package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID    string
	Created  time.Time
	Strategy string
	Dataset  string
	Config   []byte // strategy/run config as YAML

	Start time.Time
	End   time.Time

	Ticks    int
	Trades   int
	Rejected int

	InitialCapital float64
	FinalEquity    float64

	NetPL     float64
	ReturnPct float64
	MaxDDPct  float64

	// Not persisted; only used when rendering Org output.
	Notes []string
}

var backtestOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// FormatRunOrg renders a run summary as an Org-mode heading.
func FormatRunOrg(r BacktestRun) (string, error) {
	buf := new(bytes.Buffer)
	if err := backtestOrg.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteRunOrg writes FormatRunOrg output to path.
func WriteRunOrg(path string, r BacktestRun) error {
	s, err := FormatRunOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.Strategy}} {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:TICKS:       {{.Ticks}}
:START_CAP:   {{printf "%.2f" .InitialCapital}}
:END_EQUITY:  {{printf "%.2f" .FinalEquity}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:REJECTED:    {{.Rejected}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Config }}

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src
{{- end }}

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Trades:           *{{.Trades}}* ({{.Rejected}} rejected)

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

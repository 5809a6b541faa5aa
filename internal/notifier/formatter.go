package notifier

import (
	"fmt"
	"strings"

	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
	"github.com/watarai0202-netizen/snipe-stock/internal/pipeline"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
)

// FormatScanReport formats the morning recommendation table into a Telegram
// message.
func FormatScanReport(report *pipeline.Report, skips screener.SkipReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📡 <b>スナイパー・スキャン</b> | %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04")))
	b.WriteString(formatFuturesLine(report.Futures))
	b.WriteString("\n")

	if len(report.Recommendations) == 0 {
		b.WriteString("条件に合致する銘柄が見つかりませんでした。\n")
	} else {
		for _, rec := range report.Recommendations {
			target := "指値不可"
			if rec.TargetAvailable {
				target = fmt.Sprintf("%.0f", rec.TargetPrice)
			}
			verdict := string(rec.Verdict)
			if rec.Verdict == model.VerdictSnipe {
				verdict = "🎯" + verdict
			}
			b.WriteString(fmt.Sprintf("<b>%s</b> %s\n", rec.Code, rec.Name))
			b.WriteString(fmt.Sprintf("  RVOL %.2fx | 5MA乖離 %+.2f%% | 需給 %+d\n", rec.RelativeVolume, rec.MA5Deviation, rec.SupplyScore))
			b.WriteString(fmt.Sprintf("  理想指値 %s | %s\n", target, verdict))
		}
	}

	if skips.Total() > 0 {
		b.WriteString(fmt.Sprintf("\n除外: データ不足 %d / 取得失敗 %d / 条件外 %d\n",
			skips.InsufficientData, skips.FetchErrors, skips.Filtered))
	}
	return b.String()
}

func formatFuturesLine(a futures.Assessment) string {
	icon := "⚖️"
	switch a.Trend {
	case futures.TrendSharpRecovery:
		icon = "🔥"
	case futures.TrendFlatStagnant:
		icon = "⚠️"
	case futures.TrendUnavailable:
		icon = "❓"
	}
	if a.Trend == futures.TrendUnavailable {
		return fmt.Sprintf("【先物状況】%s%s (調整なし)\n", icon, a.Trend)
	}
	return fmt.Sprintf("【先物状況】%s%s (戻し率 %.1f%% / 係数 %.3f)\n", icon, a.Trend, a.Retracement*100, a.Multiplier)
}

// FormatDeltas confirms a successful margin parse for one ticker.
func FormatDeltas(code string, d margin.Deltas) string {
	return fmt.Sprintf("📝 <b>%s 需給入力</b>\n現物差 %+d株\n信用買増 %+d株\n信用売増 %+d株",
		code, d.Spot, d.MarginBuy, d.MarginSell)
}

// FormatStatus summarizes the current session state.
func FormatStatus(st *pipeline.State) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>セッション状態</b>: %s\n", st.Stage()))
	b.WriteString(fmt.Sprintf("候補数: %d\n", len(st.Candidates())))
	for _, c := range st.Candidates() {
		mark := ""
		if c.HasMarginData() {
			mark = " ✅"
		}
		b.WriteString(fmt.Sprintf("  %s %s%s\n", c.Code, c.Name, mark))
	}
	return b.String()
}

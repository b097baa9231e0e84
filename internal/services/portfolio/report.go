package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/models"
	"github.com/mhayashi/kabuto/internal/performance"
)

// GetMonthlyReport builds the blog-style report for one calendar month.
// The report is also written to the reports/ subdirectory as markdown.
// Commentary is best-effort: a missing AI client or a generation failure
// leaves the field empty without failing the report.
func (s *Service) GetMonthlyReport(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	records, _, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%04d-%02d", year, month)
	var monthRecords []models.PerformanceRecord
	for _, r := range records {
		if strings.HasPrefix(r.Date, prefix) {
			monthRecords = append(monthRecords, r)
		}
	}
	if len(monthRecords) == 0 {
		return nil, fmt.Errorf("%w for %s", interfaces.ErrNoPerformanceData, prefix)
	}

	report := &models.MonthlyReport{
		Month:       fmt.Sprintf("%d年%d月", year, month),
		Year:        year,
		MonthNum:    month,
		Date:        monthRecords[0].Date,
		GeneratedAt: time.Now().UTC(),
	}

	rates := make(map[string]float64)
	for _, r := range monthRecords {
		foreign := r.Currency != common.HomeCurrency

		report.TotalCost += r.TotalCost
		report.TotalValue += r.MarketValue
		report.TotalProfit += r.Profit

		holding := models.ReportHolding{
			Code:         r.Code,
			Name:         r.Name,
			Quantity:     r.Quantity,
			CostPrice:    r.AvgAcquisitionPrice,
			CurrentPrice: r.MonthEndPrice,
			Cost:         r.TotalCost,
			Value:        r.MarketValue,
			Profit:       r.Profit,
			ProfitRate:   r.ProfitRate,
			Currency:     r.Currency,
			IsForeign:    foreign,
		}
		if foreign {
			holding.StockProfit = r.StockProfit
			holding.FXProfit = r.FXProfit
			report.ForeignStocks.Value += r.MarketValue
			if r.MonthEndFX > 0 {
				rates[r.Currency] = r.MonthEndFX
			}
		} else {
			report.JPStocks.Value += r.MarketValue
		}
		report.Holdings = append(report.Holdings, holding)
	}

	if report.TotalCost > 0 {
		report.TotalProfitRate = performance.Round2(report.TotalProfit / report.TotalCost * 100)
	}
	if report.TotalValue > 0 {
		report.JPStocks.Ratio = performance.Round2(report.JPStocks.Value / report.TotalValue * 100)
		report.ForeignStocks.Ratio = performance.Round2(report.ForeignStocks.Value / report.TotalValue * 100)
	}
	if len(rates) > 0 {
		report.ExchangeRates = rates
	}

	if s.ai != nil {
		commentary, err := s.ai.GenerateContent(ctx, buildCommentaryPrompt(report))
		if err != nil {
			s.logger.Warn().Err(err).Msg("Report commentary generation failed")
		} else {
			report.Commentary = strings.TrimSpace(commentary)
		}
	}

	report.Markdown = renderMarkdown(report)

	key := fmt.Sprintf("%04d-%02d.md", year, month)
	if err := s.storage.WriteRaw("reports", key, []byte(report.Markdown)); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to persist report markdown")
	}

	return report, nil
}

// buildCommentaryPrompt summarizes the month's numbers for the model.
func buildCommentaryPrompt(report *models.MonthlyReport) string {
	var sb strings.Builder
	sb.WriteString("あなたは個人投資家のブログ編集者です。以下の月次ポートフォリオ実績を、")
	sb.WriteString("2〜3段落の日本語の振り返りコメントにまとめてください。数値は本文と矛盾しないこと。\n\n")
	fmt.Fprintf(&sb, "対象月: %s\n", report.Month)
	fmt.Fprintf(&sb, "評価額合計: %.0f円 (取得額 %.0f円, 損益 %+.0f円, %+.2f%%)\n",
		report.TotalValue, report.TotalCost, report.TotalProfit, report.TotalProfitRate)
	fmt.Fprintf(&sb, "日本株比率: %.1f%% / 外国株比率: %.1f%%\n", report.JPStocks.Ratio, report.ForeignStocks.Ratio)
	for currency, rate := range report.ExchangeRates {
		fmt.Fprintf(&sb, "%s/JPY 月末レート: %.2f\n", currency, rate)
	}
	sb.WriteString("\n保有銘柄:\n")
	for _, h := range report.Holdings {
		fmt.Fprintf(&sb, "- %s (%s): 損益 %+.0f円 (%+.2f%%)", h.Name, h.Code, h.Profit, h.ProfitRate)
		if h.IsForeign {
			fmt.Fprintf(&sb, " 内訳: 株価要因 %+.0f円 / 為替要因 %+.0f円", h.StockProfit, h.FXProfit)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderMarkdown renders the report as the blog-style markdown document.
func renderMarkdown(report *models.MonthlyReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s 月末ポートフォリオ実績\n\n", report.Month)
	fmt.Fprintf(&sb, "基準日: %s\n\n", report.Date)

	sb.WriteString("## サマリー\n\n")
	fmt.Fprintf(&sb, "| 評価額 | 取得額 | 損益 | 損益率 |\n")
	fmt.Fprintf(&sb, "| ---: | ---: | ---: | ---: |\n")
	fmt.Fprintf(&sb, "| %s円 | %s円 | %s円 | %+.2f%% |\n\n",
		formatYen(report.TotalValue), formatYen(report.TotalCost),
		formatYen(report.TotalProfit), report.TotalProfitRate)

	fmt.Fprintf(&sb, "日本株 %.1f%% / 外国株 %.1f%%\n\n", report.JPStocks.Ratio, report.ForeignStocks.Ratio)

	if len(report.ExchangeRates) > 0 {
		sb.WriteString("## 為替レート\n\n")
		for currency, rate := range report.ExchangeRates {
			fmt.Fprintf(&sb, "- %s/JPY: %.2f\n", currency, rate)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## 保有銘柄\n\n")
	sb.WriteString("| 銘柄 | 数量 | 取得単価 | 月末単価 | 評価額 | 損益 | 損益率 |\n")
	sb.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	for _, h := range report.Holdings {
		fmt.Fprintf(&sb, "| %s (%s) | %.0f | %s円 | %s円 | %s円 | %s円 | %+.2f%% |\n",
			h.Name, h.Code, h.Quantity,
			formatYen(h.CostPrice), formatYen(h.CurrentPrice),
			formatYen(h.Value), formatYen(h.Profit), h.ProfitRate)
	}
	sb.WriteString("\n")

	foreign := false
	for _, h := range report.Holdings {
		if h.IsForeign {
			foreign = true
			break
		}
	}
	if foreign {
		sb.WriteString("## 外国株の損益内訳\n\n")
		sb.WriteString("| 銘柄 | 損益 | 株価要因 | 為替要因 |\n")
		sb.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, h := range report.Holdings {
			if !h.IsForeign {
				continue
			}
			fmt.Fprintf(&sb, "| %s (%s) | %s円 | %s円 | %s円 |\n",
				h.Name, h.Code, formatYen(h.Profit), formatYen(h.StockProfit), formatYen(h.FXProfit))
		}
		sb.WriteString("\n")
	}

	if report.Commentary != "" {
		sb.WriteString("## 所感\n\n")
		sb.WriteString(report.Commentary)
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatYen formats a yen amount with thousands separators.
func formatYen(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	if s == "0" {
		// Fractions of a yen round to zero; never print "-0".
		negative = false
	}

	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

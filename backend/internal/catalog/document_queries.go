package catalog

import (
	"context"
	"fmt"
	"strings"

	"cinegraph/backend/internal/docquery"
	apperrors "cinegraph/backend/pkg/errors"
)

func (e *Executor) runDocument(ctx context.Context, id int, p Params, res *Result) error {
	switch id {
	case 1:
		best, err := e.docs.YearWithMostFilms(ctx)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%d (%d films)", best.Year, best.Count), best)

	case 2:
		n, err := e.docs.CountFilmsAfter(ctx, 1999)
		if err != nil {
			return err
		}
		res.scalar(fmt.Sprintf("%d films", n), n)

	case 3:
		avg, err := e.docs.AverageVotes(ctx, 2007)
		if err != nil {
			return err
		}
		res.scalar(formatFloat(avg)+" votes", avg)

	case 4:
		counts, err := e.docs.FilmsPerYear(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(counts))
		fig := &Figure{Type: "bar", XLabel: "Year", YLabel: "Films"}
		for _, c := range counts {
			rows = append(rows, []string{formatInt(c.Year), formatInt(c.Count)})
			fig.X = append(fig.X, float64(c.Year))
			fig.Y = append(fig.Y, float64(c.Count))
		}
		res.table([]string{"Year", "Films"}, rows)
		res.Figure = fig

	case 5:
		freq, err := e.docs.GenreFrequencies(ctx)
		if err != nil {
			return err
		}
		genres, err := e.docs.AvailableGenres(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(freq))
		fig := &Figure{Type: "bar", XLabel: "Genre", YLabel: "Films"}
		for _, f := range freq {
			rows = append(rows, []string{f.Genre, formatInt(f.Count)})
			fig.Labels = append(fig.Labels, f.Genre)
			fig.Y = append(fig.Y, float64(f.Count))
		}
		res.table([]string{"Genre", "Films"}, rows)
		res.Label = fmt.Sprintf("%d genres", len(genres))
		res.Value = genres
		res.Figure = fig

	case 6:
		best, err := e.docs.HighestRevenueFilm(ctx)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%s (%s M$)", best.Title, formatOptional(best.Revenue)), best)

	case 7:
		directors, err := e.docs.DirectorsWithMoreThan(ctx, p.minOr(5))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(directors))
		for _, d := range directors {
			rows = append(rows, []string{d.Director, formatInt(d.Count)})
		}
		res.table([]string{"Director", "Films"}, rows)

		// The label names the top director even when nobody passes the threshold
		top, err := e.docs.DirectorWithMostFilms(ctx)
		if err != nil {
			if apperrors.IsNoData(err) {
				return nil
			}
			return err
		}
		res.Label = fmt.Sprintf("Most films: %s (%d films)", top.Director, top.Count)
		res.Value = top

	case 8:
		best, err := e.docs.HighestAverageRevenueGenre(ctx)
		if err != nil {
			return err
		}
		means, err := e.docs.AverageRevenueByGenre(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(means))
		fig := &Figure{Type: "bar", XLabel: "Genre", YLabel: "Average revenue (M$)"}
		for _, m := range means {
			rows = append(rows, []string{m.Genre, formatFloat(m.Mean), formatInt(m.Films)})
			fig.Labels = append(fig.Labels, m.Genre)
			fig.Y = append(fig.Y, m.Mean)
		}
		res.table([]string{"Genre", "Average revenue", "Films"}, rows)
		res.pair(fmt.Sprintf("%s (%s M$)", best.Genre, formatFloat(best.Mean)), best)
		res.Figure = fig

	case 9:
		decades, err := e.docs.TopRatedByDecade(ctx, p.limitOr(3))
		if err != nil {
			return err
		}
		var rows [][]string
		for _, d := range decades {
			for i, f := range d.Films {
				rows = append(rows, []string{d.Label, formatInt(i + 1), f.Title, formatInt(f.Year), formatFloat(f.Metascore)})
			}
		}
		res.table([]string{"Decade", "Rank", "Title", "Year", "Metascore"}, rows)
		res.Records = decades

	case 10:
		longest, err := e.docs.LongestFilmByGenre(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(longest))
		for _, g := range longest {
			rows = append(rows, []string{g.Genre, g.Title, formatFloat(g.Runtime)})
		}
		res.table([]string{"Genre", "Title", "Runtime (min)"}, rows)

	case 11:
		n, err := e.docs.CreateHighRatedView(ctx)
		if err != nil {
			return err
		}
		res.scalar(fmt.Sprintf("view %s holds %d films", docquery.HighRatedViewName, n), n)

	case 12:
		corr, err := e.docs.RuntimeRevenueCorrelation(ctx)
		if err != nil {
			return err
		}
		fig := &Figure{Type: "scatter", XLabel: "Runtime (min)", YLabel: "Revenue (M$)"}
		for _, pt := range corr.Points {
			fig.X = append(fig.X, pt.Runtime)
			fig.Y = append(fig.Y, pt.Revenue)
		}
		res.Kind = KindFigure
		res.Label = fmt.Sprintf("r = %.4f, p = %.4g, n = %d", corr.Coefficient, corr.PValue, corr.N)
		res.Value = map[string]interface{}{
			"coefficient": corr.Coefficient,
			"p_value":     corr.PValue,
			"n":           corr.N,
		}
		res.Figure = fig

	case 13:
		means, err := e.docs.AverageRuntimeByDecade(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(means))
		fig := &Figure{Type: "line", XLabel: "Decade", YLabel: "Average runtime (min)"}
		for _, m := range means {
			rows = append(rows, []string{m.Label, formatFloat(m.Mean), formatInt(m.Films)})
			fig.X = append(fig.X, float64(m.Decade))
			fig.Y = append(fig.Y, m.Mean)
		}
		res.table([]string{"Decade", "Average runtime", "Films"}, rows)
		res.Figure = fig

	case 27:
		pairs, err := e.docs.CommonGenrePairs(ctx, p.Limit)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(pairs))
		for _, pair := range pairs {
			rows = append(rows, []string{pair.First, pair.Second, strings.Join(pair.CommonGenres, ", ")})
		}
		res.table([]string{"Film", "Film", "Common genres"}, rows)

	default:
		return fmt.Errorf("query %d is not a document query", id)
	}
	return nil
}

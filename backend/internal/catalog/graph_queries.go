package catalog

import (
	"context"
	"fmt"
	"strings"

	"cinegraph/backend/internal/graph"
)

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", errMissingParam, name)
	}
	return nil
}

func (e *Executor) runGraph(ctx context.Context, id int, p Params, res *Result) error {
	switch id {
	case 14:
		top, role, err := e.mostFilms(ctx, p.Role)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%s (%d films)", top.Name, top.Count), top)
		res.Title = fmt.Sprintf("%s with the most films", role)

	case 15:
		actor := p.Actor
		if actor == "" {
			actor = DefaultActor
		}
		coActors, err := e.graph.CoActors(ctx, actor)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(coActors))
		for _, c := range coActors {
			rows = append(rows, []string{c.Name, strings.Join(c.Films, ", ")})
		}
		res.table([]string{"Actor", "Films"}, rows)
		res.Title = "Actors who played with " + actor

	case 16:
		top, role, err := e.highestRevenue(ctx, p.Role)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%s (%s M$)", top.Name, formatFloat(top.Value)), top)
		res.Title = fmt.Sprintf("%s with the highest total revenue", role)

	case 17:
		avg, err := e.graph.AverageVotes(ctx)
		if err != nil {
			return err
		}
		res.scalar(formatFloat(avg)+" votes", avg)

	case 18:
		genre, err := e.graph.MostRepresentedGenre(ctx)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%s (%d films)", genre.Genre, genre.Count), genre)

	case 19:
		if err := requireParam(ParamActor, p.Actor); err != nil {
			return err
		}
		films, err := e.graph.CoStarFilms(ctx, p.Actor)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(films))
		for _, f := range films {
			rows = append(rows, []string{f.Title, formatInt(f.Year)})
		}
		res.table([]string{"Title", "Year"}, rows)

	case 20:
		top, err := e.graph.DirectorWithMostActors(ctx)
		if err != nil {
			return err
		}
		res.pair(fmt.Sprintf("%s (%d actors)", top.Name, top.Count), top)

	case 21:
		pairs, err := e.graph.MostConnectedFilms(ctx, p.limitOr(10))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(pairs))
		for _, c := range pairs {
			rows = append(rows, []string{c.First, c.Second, formatInt(c.Shared), strings.Join(c.Actors, ", ")})
		}
		res.table([]string{"Film", "Film", "Shared actors", "Actors"}, rows)

	case 22:
		actors, err := e.graph.ActorsWithMostDirectors(ctx, p.limitOr(5))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(actors))
		for _, a := range actors {
			rows = append(rows, []string{a.Actor, formatInt(a.Count), strings.Join(a.Directors, ", ")})
		}
		res.table([]string{"Actor", "Directors", "Names"}, rows)

	case 23:
		if err := requireParam(ParamActor, p.Actor); err != nil {
			return err
		}
		recs, err := e.graph.RecommendByRating(ctx, p.Actor, p.limitOr(5))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.Title, formatInt(r.Year), formatOptional(r.Rating), formatOptionalInt(r.Votes)})
		}
		res.table([]string{"Title", "Year", "Rating", "Votes"}, rows)

	case 24:
		n, err := e.graph.CreateInfluenceRelationships(ctx)
		if err != nil {
			return err
		}
		res.scalar(fmt.Sprintf("%d INFLUENCED_BY relationships", n), n)

	case 25:
		if err := requireParam(ParamActor, p.Actor); err != nil {
			return err
		}
		if err := requireParam(ParamActor2, p.Actor2); err != nil {
			return err
		}
		path, err := e.graph.ShortestPath(ctx, p.Actor, p.Actor2)
		if err != nil {
			return err
		}
		res.Kind = KindRecords
		res.Records = path
		res.Empty = len(path) == 0
		if res.Empty {
			res.Warning = fmt.Sprintf("no path between %s and %s", p.Actor, p.Actor2)
		} else {
			res.Label = fmt.Sprintf("%d hops", len(path)-1)
		}

	case 26:
		communities, g, err := e.graph.ActorCommunities(ctx, p.limitOr(5))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(communities))
		for _, c := range communities {
			rows = append(rows, []string{formatInt(c.ID), strings.Join(c.Actors, ", "), formatInt(c.FilmCount), formatInt(c.Size)})
		}
		res.table([]string{"Community", "Actors", "Films", "Size"}, rows)
		if !res.Empty {
			res.Graph = &g
		}

	case 28:
		if err := requireParam(ParamActor, p.Actor); err != nil {
			return err
		}
		recs, err := e.graph.RecommendByCoStars(ctx, p.Actor, p.limitOr(5))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.Title, formatInt(r.Year), formatInt(r.CoStars)})
		}
		res.table([]string{"Title", "Year", "Co-stars"}, rows)

	case 29:
		mode := p.Mode
		if mode == "" {
			mode = e.competitionMode
		}
		total, err := e.graph.CreateCompetitionRelationships(ctx, mode)
		if err != nil {
			return err
		}
		res.scalar(fmt.Sprintf("%d COMPETES_WITH relationships (%s)", total, mode), total)

	case 30:
		minFilms := p.minOr(2)
		collabs, err := e.graph.Collaborations(ctx, minFilms)
		if err != nil {
			return err
		}
		commercial, err := e.graph.CommercialCollaborations(ctx, minFilms, p.Sort)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(commercial))
		for _, c := range commercial {
			rows = append(rows, []string{c.Director, c.Actor, formatInt(c.Count), formatOptional(c.AvgRevenue), formatOptional(c.AvgVotes)})
		}
		res.table([]string{"Director", "Actor", "Films", "Average revenue", "Average votes"}, rows)
		graph.SortCollaborations(collabs, p.CollabSort)
		res.Records = collabs

	default:
		return fmt.Errorf("query %d is not a graph query", id)
	}
	return nil
}

func (e *Executor) mostFilms(ctx context.Context, role string) (graph.NameCount, string, error) {
	if role == RoleDirector {
		top, err := e.graph.DirectorWithMostFilms(ctx)
		return top, "Director", err
	}
	top, err := e.graph.ActorWithMostFilms(ctx)
	return top, "Actor", err
}

func (e *Executor) highestRevenue(ctx context.Context, role string) (graph.NameValue, string, error) {
	if role == RoleDirector {
		top, err := e.graph.DirectorWithHighestRevenue(ctx)
		return top, "Director", err
	}
	top, err := e.graph.ActorWithHighestRevenue(ctx)
	return top, "Actor", err
}

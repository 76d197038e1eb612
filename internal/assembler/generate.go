package assembler

import (
	"fmt"

	"github.com/nconklindev/bulksheet/internal/container"
	"github.com/nconklindev/bulksheet/internal/mapping"
	"github.com/nconklindev/bulksheet/internal/types"
	"github.com/nconklindev/bulksheet/internal/workbook"
)

// Generate runs req end to end. The destination is only created once every
// byte of the output has been assembled; on error nothing is written.
func Generate(req types.Request, opts Options) (*types.Result, error) {
	if len(req.Rows) == 0 {
		return nil, types.ErrInputEmpty
	}
	ms, rejected := mapping.Parse(req.Mappings)
	if len(ms) == 0 {
		return nil, types.ErrNoMappings
	}

	format, err := resolveFormat(req)
	if err != nil {
		return nil, err
	}
	if opts.Total == 0 {
		opts.Total = len(req.Rows)
	}

	var res *types.Result
	if format == container.FormatODF && req.Template == "" {
		res, err = synthesize(req, ms, opts)
	} else {
		res, err = fromTemplate(req, format, ms, opts)
	}
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		res.Rejected = append(res.Rejected, r.String())
	}
	return res, nil
}

func resolveFormat(req types.Request) (container.Format, error) {
	if req.Format != "" {
		return container.ParseFormat(req.Format)
	}
	if f, err := container.FormatFromPath(req.Output); err == nil {
		return f, nil
	}
	return container.FormatOOXML, nil
}

func fromTemplate(req types.Request, format container.Format, ms []mapping.Mapping, opts Options) (*types.Result, error) {
	if req.Template == "" {
		return nil, fmt.Errorf("%w: %s output needs a template", container.ErrOpenSource, format)
	}
	c, err := container.New(format)
	if err != nil {
		return nil, err
	}
	parts, err := c.Load(req.Template)
	if err != nil {
		return nil, err
	}
	pkg, err := workbook.Load(parts, req.Sheet)
	if err != nil {
		return nil, err
	}

	a := New(pkg, opts)
	for _, row := range req.Rows {
		if err := a.AddRow(row, ms); err != nil {
			return nil, err
		}
	}
	n, err := a.Finalize(req.Output, c)
	if err != nil {
		return nil, err
	}

	res := &types.Result{Output: req.Output, Sheets: n}
	for _, s := range a.Sheets() {
		res.Names = append(res.Names, s.Name)
	}
	return res, nil
}

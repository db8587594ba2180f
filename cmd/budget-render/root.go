package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"
	"reforma-budgets/internal/render"
	"reforma-budgets/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	number         string
	client         string
	description    string
	notes          string
	duration       string
	valueWith      string
	valueWithout   string
	validity       string
	payment        string
	date           string
	companyName    string
	companyPhone   string
	companyEmail   string
	companyCNPJ    string
	companyAddress string
	logoPath       string
	attachmentPath string
	out            string
	pagination     string
	scale          float64
	zoom           float64
	quality        int
	timeout        time.Duration
	verbose        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "budget-render",
		Short: "Render a budget PDF locally",
		Long: `budget-render lays out a budget the same way the API does, appends the
pages of an optional material budget PDF and writes the result to --out.
Nothing is uploaded and no record is written.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			log, err := logger.New(level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			doc, err := renderBudget(ctx, opts, log)
			if err != nil {
				return err
			}

			out := opts.out
			if out == "" {
				out = doc.FileName
			}
			if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages (%d budget, %d attachment)\n",
				out, doc.PageCount, doc.SnapshotPages, doc.AttachmentPages)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.number, "number", "", "budget number (generated when empty)")
	f.StringVar(&opts.client, "client", "", "client name")
	f.StringVar(&opts.description, "description", "", "service description")
	f.StringVar(&opts.notes, "notes", "", "additional notes")
	f.StringVar(&opts.duration, "duration", "", "estimated duration")
	f.StringVar(&opts.valueWith, "value-with-material", "", "total with material")
	f.StringVar(&opts.valueWithout, "value-without-material", "", "total without material")
	f.StringVar(&opts.validity, "validity", "", "validity in days")
	f.StringVar(&opts.payment, "payment", "", "payment method")
	f.StringVar(&opts.date, "date", "", "budget date, YYYY-MM-DD (today when empty)")
	f.StringVar(&opts.companyName, "company", "", "company name")
	f.StringVar(&opts.companyPhone, "company-phone", "", "company phone")
	f.StringVar(&opts.companyEmail, "company-email", "", "company email")
	f.StringVar(&opts.companyCNPJ, "company-cnpj", "", "company CNPJ")
	f.StringVar(&opts.companyAddress, "company-address", "", "company address")
	f.StringVar(&opts.logoPath, "logo", "", "logo image file (PNG, JPEG or WebP)")
	f.StringVarP(&opts.attachmentPath, "attachment", "a", "", "material budget PDF to append")
	f.StringVarP(&opts.out, "out", "o", "", "output file (orcamento-<number>.pdf when empty)")
	f.StringVar(&opts.pagination, "pagination", string(render.PaginationOffset), "budget page split: offset or slice")
	f.Float64Var(&opts.scale, "scale", 2, "snapshot scale factor")
	f.Float64Var(&opts.zoom, "zoom", 1.5, "attachment rasterization zoom")
	f.IntVar(&opts.quality, "quality", 90, "JPEG quality of embedded pages")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func renderBudget(ctx context.Context, opts *options, log *zap.Logger) (*render.FinalDocument, error) {
	f := form.New()
	fields := f.Fields()
	if opts.number != "" {
		fields.BudgetNumber = opts.number
	}
	fields.ClientName = opts.client
	fields.Description = opts.description
	fields.AdditionalNotes = opts.notes
	fields.Duration = opts.duration
	fields.ValueWithMaterial = opts.valueWith
	fields.ValueWithoutMaterial = opts.valueWithout
	fields.ValidityDays = opts.validity
	fields.PaymentMethod = opts.payment
	if opts.date != "" {
		d, err := time.Parse(time.DateOnly, opts.date)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: %w", opts.date, err)
		}
		fields.Date = d
	}

	company := models.DefaultCompanySettings(uuid.Nil)
	for dst, v := range map[*string]string{
		&company.CompanyName: opts.companyName,
		&company.Phone:       opts.companyPhone,
		&company.Email:       opts.companyEmail,
		&company.CNPJ:        opts.companyCNPJ,
		&company.Address:     opts.companyAddress,
	} {
		if v != "" {
			*dst = v
		}
	}

	var logo image.Image
	if opts.logoPath != "" {
		data, err := os.ReadFile(opts.logoPath)
		if err != nil {
			return nil, fmt.Errorf("read logo: %w", err)
		}
		logo, err = render.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("decode logo: %w", err)
		}
	}

	var pages []render.RasterPage
	attachmentName := ""
	if opts.attachmentPath != "" {
		data, err := os.ReadFile(opts.attachmentPath)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		attachmentName = filepath.Base(opts.attachmentPath)
		pages, err = render.NewRasterizer(opts.zoom, opts.quality, log.Named("rasterizer")).Rasterize(ctx, data)
		if err != nil {
			return nil, err
		}
	}

	layout := render.NewLayout(render.LayoutInput{
		Fields:         fields,
		Company:        company,
		AttachmentName: attachmentName,
		Logo:           logo,
	})
	if err := layout.Resolve(); err != nil {
		return nil, fmt.Errorf("lay out budget: %w", err)
	}

	snap, err := render.NewSnapshotter(opts.scale, log.Named("snapshotter")).Capture(ctx, layout)
	if err != nil {
		return nil, err
	}

	doc, err := render.NewAssembler(render.ParsePagination(opts.pagination), opts.quality, log.Named("assembler")).
		Assemble(ctx, fields.BudgetNumber, snap, pages)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

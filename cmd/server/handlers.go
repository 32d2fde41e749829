package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rhyrak/go-allocate/internal/allocator"
	"github.com/rhyrak/go-allocate/internal/csvio"
	"github.com/rhyrak/go-allocate/internal/store"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportName      = "course_allocations"
)

func (s *server) handleGetAllocations(ctx *gin.Context) {
	runs, err := s.runs.List(ctx.Request.Context())
	if err != nil {
		s.logger.Error("list runs", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"allocations": runs,
	})
}

func (s *server) handleGetAllocationWithId(ctx *gin.Context) {
	run, ok := s.loadRun(ctx)
	if !ok {
		return
	}

	filter := allocator.Filter{
		Query:      ctx.Query("q"),
		Department: ctx.DefaultQuery("department", allocator.AllDepartments),
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":          run.ID,
		"status":      run.Status,
		"report":      run.Report,
		"createdAt":   run.CreatedAt,
		"stats":       run.Result.Stats,
		"departments": allocator.Departments(run.Result.Records),
		"allocations": filter.Apply(run.Result.Records),
	})
}

func (s *server) handleExportAllocationWithId(ctx *gin.Context) {
	run, ok := s.loadRun(ctx)
	if !ok {
		return
	}

	switch format := ctx.DefaultQuery("format", "csv"); format {
	case "csv":
		data, err := csvio.MarshalAllocations(&run.Result)
		if err != nil {
			s.logger.Error("export csv", zap.String("id", run.ID), zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}
		attachment(ctx, exportName+".csv")
		ctx.Data(http.StatusOK, "text/csv", []byte(data))
	case "xlsx":
		var buf bytes.Buffer
		if err := csvio.WriteAllocationsXLSX(&buf, &run.Result); err != nil {
			s.logger.Error("export xlsx", zap.String("id", run.ID), zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}
		attachment(ctx, exportName+".xlsx")
		ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
	}
}

func (s *server) handleDeleteAllocationWithId(ctx *gin.Context) {
	id := ctx.Param("id")

	err := s.runs.Delete(ctx.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ctx.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("delete run", zap.String("id", id), zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id": id,
	})
}

// handlePostAllocation accepts either a "workbook" .xlsx file or the three
// "students", "departments" and "courses" CSV files, runs the allocation and
// stores the finished result.
func (s *server) handlePostAllocation(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		s.logger.Info("error reading form", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.cfg.Options()
	if v := ctx.PostForm("maxRank"); v != "" {
		rank, err := strconv.Atoi(v)
		if err != nil || rank < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid maxRank %q", v)})
			return
		}
		opts.MaxRank = rank
		opts.DeriveMaxRank = false
	}

	wb, err := s.readUpload(form)
	if err == nil {
		err = wb.Validate()
	}
	if err != nil {
		s.metrics.ObserveFailure()
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ds, report, err := csvio.LoadDataset(wb)
	if err != nil {
		s.metrics.ObserveFailure()
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine := allocator.NewEngine(opts, s.logger, s.metrics)
	result, warnings := engine.Run(ds)
	report.Warnings = append(report.Warnings, warnings...)

	run := &store.Run{
		Status: store.StatusSuccess,
		Report: report.String(),
		Result: result,
	}
	if err := s.runs.Create(ctx.Request.Context(), run); err != nil {
		s.logger.Error("store run", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":     run.ID,
		"stats":  result.Stats,
		"report": run.Report,
	})
}

func (s *server) handleGetTemplate(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := csvio.WriteTemplateXLSX(&buf); err != nil {
		s.logger.Error("template", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return
	}
	attachment(ctx, "course_allocation_template.xlsx")
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *server) loadRun(ctx *gin.Context) (*store.Run, bool) {
	id := ctx.Param("id")
	run, err := s.runs.Get(ctx.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ctx.Status(http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.logger.Error("get run", zap.String("id", id), zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func (s *server) readUpload(form *multipart.Form) (*csvio.Workbook, error) {
	if files := form.File["workbook"]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return csvio.ReadWorkbook(f)
	}

	tables := make(map[string]io.Reader)
	for field, name := range map[string]string{
		"students":    csvio.StudentsTable,
		"departments": csvio.DepartmentsTable,
		"courses":     csvio.CoursesTable,
	} {
		files := form.File[field]
		if len(files) == 0 {
			continue
		}
		f, err := files[0].Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		tables[name] = f
	}
	return csvio.NewWorkbook(tables, s.cfg.Delim())
}

func attachment(ctx *gin.Context, filename string) {
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

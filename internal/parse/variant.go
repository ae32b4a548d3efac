package parse

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

var (
	cdsSpanRE    = regexp.MustCompile(`^(<?)(\d+)\.\.(\d+)(>?)$`)
	refSeqRE     = regexp.MustCompile(`(?i)^(.*?)(\(?([NY])([NY])\)?)?$`)
	protLengthRE = regexp.MustCompile(`^(>?)(\d+)$`)
	frameKnownRE = regexp.MustCompile(`(?i)^y`)
)

const (
	variantFieldSep  = " /"
	unannotatedValue = ".."
	referenceType    = "Ref"
)

// ParseVariants reads one isoform header per line:
//
//	#3 /nex=4 /L=1520 /CDS=101..1300 /RefSeq=NM_000001(YY) /ProtL=399 /Frame=y /Type=Ref
//
// Each line creates the isoform with that index in g.Isoforms.
func (p *Parser) ParseVariants(r io.Reader, name string, g *model.Gene) error {
	lr := newLineReader(r, name)

	for lr.next() {
		line := trimEOL(lr.text)
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, variantFieldSep)
		head := fields[0]
		if i := strings.LastIndex(head, "#"); i >= 0 {
			head = head[i+1:]
		}
		index, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			if len(fields) == 1 && strings.HasPrefix(strings.TrimSpace(line), "#") {
				// comment line
				continue
			}
			return lr.fail("missing isoform index", err)
		}

		if _, dup := g.Isoforms[index]; dup {
			return model.Inconsistent(model.DuplicateIsoform,
				"%s:%d: isoform %d declared twice", name, lr.num, index)
		}

		iso := model.NewIsoform(index)
		for _, field := range fields[1:] {
			key, value, ok := strings.Cut(field, "=")
			if !ok {
				return lr.fail(fmt.Sprintf("field %q is not key=value", field), nil)
			}
			p.logger.Debug("variant field",
				zap.Int("isoform", index), zap.String("key", key), zap.String("value", value))
			if err := applyVariantField(iso, key, value); err != nil {
				return lr.fail(fmt.Sprintf("field %s=%s", key, value), err)
			}
		}
		g.Isoforms[index] = iso
	}
	if err := lr.err(); err != nil {
		return err
	}

	p.logger.Debug("read isoform headers", zap.String("file", name), zap.Int("isoforms", len(g.Isoforms)))
	return nil
}

// applyVariantField sets the isoform attributes carried by one key=value
// pair. ProtL and Frame only apply once a CDS has been seen on the line.
func applyVariantField(iso *model.Isoform, key, value string) error {
	switch key {
	case "nex":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		iso.NumberOfExons = n

	case "L":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		iso.Length = n

	case "CDS":
		if value == unannotatedValue {
			return nil
		}
		m := cdsSpanRE.FindStringSubmatch(value)
		if m == nil {
			return fmt.Errorf("malformed CDS span")
		}
		start, _ := strconv.Atoi(m[2])
		end, _ := strconv.Atoi(m[3])
		iso.AnnotatedCDS = true
		iso.CDSStart = model.Ptr(start)
		iso.CDSEnd = model.Ptr(end)
		iso.CDSLength = model.Ptr(end - start + 1)
		iso.StartCodon = model.Ptr(m[1] != "<")
		iso.StopCodon = model.Ptr(m[4] != ">")

	case "RefSeq":
		m := refSeqRE.FindStringSubmatch(value)
		if m == nil {
			return nil
		}
		iso.ReferenceStartCodon = model.Ptr(!strings.EqualFold(m[3], "N"))
		iso.ReferenceStopCodon = model.Ptr(!strings.EqualFold(m[4], "N"))
		if m[1] != "" {
			iso.RefSeqID = m[1]
		}

	case "ProtL":
		if value == unannotatedValue || !iso.AnnotatedCDS {
			return nil
		}
		m := protLengthRE.FindStringSubmatch(value)
		if m == nil {
			return fmt.Errorf("malformed protein length")
		}
		n, _ := strconv.Atoi(m[2])
		iso.ProteinLength = model.Ptr(n)
		iso.ProteinIncomplete = model.Ptr(m[1] == ">")

	case "Frame":
		if iso.AnnotatedCDS && frameKnownRE.MatchString(value) {
			iso.ReferenceFrame = true
		}

	case "Type":
		if value == referenceType {
			iso.ReferenceFrame = true
			if iso.RefSeqID != "" {
				iso.VariantType = iso.RefSeqID + " (Reference TR)"
			} else {
				iso.VariantType = "(Reference TR)"
			}
		} else {
			iso.VariantType = strings.TrimRight(value, " \t")
		}

	default:
		return fmt.Errorf("unrecognized key %q", key)
	}
	return nil
}

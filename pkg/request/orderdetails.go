package request

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
)

// OrderDetailsBuilder fills the OrderDetails element. The vocabulary
// is generation specific, so the factory routes all population
// through a detailsStrategy.
type OrderDetailsBuilder struct {
	el *etree.Element
}

// detailsStrategy emits the order type designation and order
// parameters for one protocol generation. Selected once at factory
// construction.
type detailsStrategy interface {
	apply(b *OrderDetailsBuilder, ot OrderType, spec orderSpec, ctx *Context) error
}

// details25 writes the fixed order type codes and attributes of
// generations H003/H004.
type details25 struct{}

func (details25) apply(b *OrderDetailsBuilder, ot OrderType, spec orderSpec, ctx *Context) error {
	b.el.CreateElement("OrderType").SetText(string(ot))
	b.el.CreateElement("OrderAttribute").SetText(spec.attribute)

	switch spec.params {
	case paramsNone:
		// INI, HIA, HPB: OrderDetails carries no parameter element.
	case paramsStandard:
		standardOrderParams(b.el, ctx.StartDate, ctx.EndDate)
	case paramsFDL:
		fdlOrderParams(b.el, ctx)
	case paramsBTD:
		return fmt.Errorf("%w: BTD requires a generation 3.0 host", ebics.ErrConfiguration)
	}
	return nil
}

// details30 writes the H005 admin order type plus BTF descriptors.
type details30 struct{}

func (details30) apply(b *OrderDetailsBuilder, ot OrderType, spec orderSpec, ctx *Context) error {
	b.el.CreateElement("AdminOrderType").SetText(string(ot))

	switch spec.params {
	case paramsBTD:
		btdOrderParams(b.el, ctx)
	case paramsStandard:
		standardOrderParams(b.el, ctx.StartDate, ctx.EndDate)
	case paramsFDL:
		fdlOrderParams(b.el, ctx)
	}
	return nil
}

func standardOrderParams(parent *etree.Element, start, end *time.Time) {
	p := parent.CreateElement("StandardOrderParams")
	if start != nil && end != nil {
		dateRange(p, *start, *end)
	}
}

func fdlOrderParams(parent *etree.Element, ctx *Context) {
	p := parent.CreateElement("FDLOrderParams")
	if ctx.StartDate != nil && ctx.EndDate != nil {
		dateRange(p, *ctx.StartDate, *ctx.EndDate)
	}
	ff := p.CreateElement("FileFormat")
	ff.CreateAttr("CountryCode", ctx.CountryCode)
	ff.SetText(ctx.FileFormat)
}

func btdOrderParams(parent *etree.Element, ctx *Context) {
	p := parent.CreateElement("BTDOrderParams")

	svc := p.CreateElement("Service")
	svc.CreateElement("ServiceName").SetText(ctx.BTF.ServiceName)
	if ctx.BTF.ServiceOption != "" {
		svc.CreateElement("ServiceOption").SetText(ctx.BTF.ServiceOption)
	}
	if ctx.BTF.Scope != "" {
		svc.CreateElement("Scope").SetText(ctx.BTF.Scope)
	}
	if ctx.BTF.ContainerType != "" {
		ct := svc.CreateElement("Container")
		ct.CreateAttr("containerType", ctx.BTF.ContainerType)
	}
	msg := svc.CreateElement("MsgName")
	if ctx.BTF.MsgNameVersion != "" {
		msg.CreateAttr("version", ctx.BTF.MsgNameVersion)
	}
	if ctx.BTF.MsgNameVariant != "" {
		msg.CreateAttr("variant", ctx.BTF.MsgNameVariant)
	}
	if ctx.BTF.MsgNameFormat != "" {
		msg.CreateAttr("format", ctx.BTF.MsgNameFormat)
	}
	msg.SetText(ctx.BTF.MsgName)

	if ctx.StartDate != nil && ctx.EndDate != nil {
		dateRange(p, *ctx.StartDate, *ctx.EndDate)
	}
}

func dateRange(parent *etree.Element, start, end time.Time) {
	dr := parent.CreateElement("DateRange")
	dr.CreateElement("Start").SetText(start.Format("2006-01-02"))
	dr.CreateElement("End").SetText(end.Format("2006-01-02"))
}

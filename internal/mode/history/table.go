package history

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/portal/internal/listing"
	"github.com/zjrosen/portal/internal/ui/styles"
)

const (
	idWidth       = 16
	statusWidth   = 12
	itemsWidth    = 6
	totalWidth    = 12
	trackingWidth = 20
	minNameWidth  = 12
)

// cell truncates s to w display columns and pads it to exactly w.
func cell(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func cellRight(s string, w int) string {
	return runewidth.FillLeft(runewidth.Truncate(s, w, "…"), w)
}

func renderTable(rows []listing.Row, cursor int, expanded func(string) bool, width int) string {
	withTracking := len(rows) > 0 && rows[0].Kind == listing.Order

	var b strings.Builder
	header := "  " + cell("ID", idWidth) + " " + cell("STATUS", statusWidth) + " " +
		cellRight("ITEMS", itemsWidth) + " " + cellRight("TOTAL", totalWidth)
	if withTracking {
		header += "  " + cell("TRACKING", trackingWidth)
	}
	b.WriteString(styles.HeaderStyle.Render(header))

	for i, row := range rows {
		b.WriteString("\n")
		indicator := "  "
		if i == cursor {
			indicator = styles.SelectionIndicatorStyle.Render(">") + " "
		}
		line := cell(row.ID, idWidth) + " " +
			styles.Status(cell(row.Status, statusWidth)) + " " +
			cellRight(fmt.Sprint(row.TotalQty()), itemsWidth) + " " +
			cellRight(row.Total.Dollars(), totalWidth)
		if withTracking {
			line += "  " + cell(row.TrackingRef(), trackingWidth)
		}
		b.WriteString(indicator + line)

		if expanded(row.ID) {
			for _, li := range row.LineItems {
				b.WriteString("\n")
				b.WriteString(styles.MutedStyle.Render(renderLine(li, width)))
			}
		}
	}
	return b.String()
}

func renderLine(li listing.LineItem, width int) string {
	nameWidth := max(minNameWidth, width-idWidth-statusWidth-totalWidth*2-16)
	return "      " + cell(li.PartID, idWidth-4) + " " +
		cell(li.Name, nameWidth) + " " +
		cellRight(fmt.Sprintf("%d × %s", li.Qty, li.UnitPrice.Dollars()), totalWidth+4) + " " +
		cellRight(li.LineTotal().Dollars(), totalWidth) + "  " + li.Status
}

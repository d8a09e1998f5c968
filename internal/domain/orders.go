package domain

import "sort"

// OrderAudit counts what HarmonizeOrders kept and why it dropped the rest.
type OrderAudit struct {
	LinesRead           int `json:"lines_read"`
	Kept                int `json:"kept"`
	MissingOrderHeader  int `json:"missing_order_header"`
	MissingTruck        int `json:"missing_truck"`
	MissingMenuItem     int `json:"missing_menu_item"`
	GuestLines          int `json:"guest_lines"`
	UnresolvedCustomers int `json:"unresolved_customers"`
	DuplicateKeys       int `json:"duplicate_reference_keys"`
}

// Excluded returns the number of order lines dropped by the joins.
func (a OrderAudit) Excluded() int {
	return a.MissingOrderHeader + a.MissingTruck + a.MissingMenuItem
}

// HarmonizeOrders joins every order line to its header, truck and menu item,
// and to the ordering customer when there is one. Lines whose header, truck
// or menu item is missing are dropped and counted. When a reference table
// repeats a key, the first row wins.
func HarmonizeOrders(t Tables) ([]HarmonizedOrder, OrderAudit) {
	var audit OrderAudit

	headers := make(map[int64]OrderHeader, len(t.OrderHeaders))
	for _, h := range t.OrderHeaders {
		if _, ok := headers[h.OrderID]; ok {
			audit.DuplicateKeys++
			continue
		}
		headers[h.OrderID] = h
	}
	trucks := make(map[int64]Truck, len(t.Trucks))
	for _, tr := range t.Trucks {
		if _, ok := trucks[tr.TruckID]; ok {
			audit.DuplicateKeys++
			continue
		}
		trucks[tr.TruckID] = tr
	}
	menu := make(map[int64]MenuItem, len(t.Menu))
	for _, m := range t.Menu {
		if _, ok := menu[m.MenuItemID]; ok {
			audit.DuplicateKeys++
			continue
		}
		menu[m.MenuItemID] = m
	}
	customers := make(map[int64]Customer, len(t.Customers))
	for _, c := range t.Customers {
		if _, ok := customers[c.CustomerID]; ok {
			audit.DuplicateKeys++
			continue
		}
		customers[c.CustomerID] = c
	}

	out := make([]HarmonizedOrder, 0, len(t.OrderLines))
	for _, line := range t.OrderLines {
		audit.LinesRead++

		header, ok := headers[line.OrderID]
		if !ok {
			audit.MissingOrderHeader++
			continue
		}
		truck, ok := trucks[header.TruckID]
		if !ok {
			audit.MissingTruck++
			continue
		}
		item, ok := menu[line.MenuItemID]
		if !ok {
			audit.MissingMenuItem++
			continue
		}

		row := HarmonizedOrder{
			OrderID:         header.OrderID,
			OrderDetailID:   line.OrderDetailID,
			LineNumber:      line.LineNumber,
			OrderTS:         header.OrderTS,
			OrderDate:       DateOf(header.OrderTS),
			OrderCurrency:   header.OrderCurrency,
			TruckID:         truck.TruckID,
			TruckBrandName:  item.TruckBrandName,
			MenuType:        item.MenuType,
			PrimaryCity:     truck.PrimaryCity,
			Region:          truck.Region,
			Country:         truck.Country,
			FranchiseFlag:   truck.FranchiseFlag,
			MenuItemID:      item.MenuItemID,
			MenuItemName:    item.MenuItemName,
			ItemCategory:    item.ItemCategory,
			ItemSubcategory: item.ItemSubcategory,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Price:           line.Price,
		}

		if header.CustomerID == nil {
			audit.GuestLines++
		} else {
			id := *header.CustomerID
			row.CustomerID = &id
			if c, ok := customers[id]; ok {
				row.FirstName = c.FirstName
				row.LastName = c.LastName
			} else {
				audit.UnresolvedCustomers++
			}
		}

		out = append(out, row)
	}
	audit.Kept = len(out)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		return a.OrderDetailID < b.OrderDetailID
	})

	return out, audit
}

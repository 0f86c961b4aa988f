package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hotelcare/internal/core"
	"hotelcare/internal/photo"
	"hotelcare/pkg/domain"
)

func encodePhotos(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	sources := make([]photo.Source, len(paths))
	for i, p := range paths {
		sources[i] = photo.FileSource(p)
	}
	return photo.EncodeAll(ctx, sources)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
}

func (a *app) hotelCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "hotel", Short: "Manage hotels"}

	var address, photoPath string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a hotel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			in := core.HotelInput{Name: args[0], Address: address}
			if photoPath != "" {
				photos, err := encodePhotos(cmd.Context(), []string{photoPath})
				if err != nil {
					return err
				}
				in.Photo = photos[0]
			}
			h, err := svc.AddHotel(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", h.ID, h.Name)
			return a.synced()
		},
	}
	add.Flags().StringVar(&address, "address", "", "street address")
	add.Flags().StringVar(&photoPath, "photo", "", "cover photo file")

	var newName, newAddress, newPhoto string
	var clearPhoto bool
	update := &cobra.Command{
		Use:   "update <hotel-id>",
		Short: "Edit a hotel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			h, err := svc.Hotel(args[0])
			if err != nil {
				return err
			}
			in := core.HotelInput{Name: h.Name, Address: h.Address}
			if h.Photo != nil {
				in.Photo = *h.Photo
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = newName
			}
			if flags.Changed("address") {
				in.Address = newAddress
			}
			if clearPhoto {
				in.Photo = ""
			}
			if newPhoto != "" {
				photos, err := encodePhotos(cmd.Context(), []string{newPhoto})
				if err != nil {
					return err
				}
				in.Photo = photos[0]
			}
			if _, err := svc.UpdateHotel(cmd.Context(), args[0], in); err != nil {
				return err
			}
			return a.synced()
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name")
	update.Flags().StringVar(&newAddress, "address", "", "new address")
	update.Flags().StringVar(&newPhoto, "photo", "", "new cover photo file")
	update.Flags().BoolVar(&clearPhoto, "clear-photo", false, "remove the cover photo")

	list := &cobra.Command{
		Use:   "list",
		Short: "List hotels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			w := a.table()
			for _, h := range svc.Hotels() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d apartamentos\n", h.ID, h.Name, h.Address, len(h.Apartments))
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <hotel-id>",
		Short: "Delete a hotel with its apartments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.RequestDeleteHotel(args[0])
			if err != nil {
				return err
			}
			return a.confirm(cmd.Context(), svc, p)
		},
	}

	cmd.AddCommand(add, update, list, del)
	return cmd
}

func (a *app) apartmentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apartment", Short: "Manage apartments of a hotel"}

	var description string
	var photoPaths []string
	add := &cobra.Command{
		Use:   "add <hotel-id> <number>",
		Short: "Add an apartment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			photos, err := encodePhotos(cmd.Context(), photoPaths)
			if err != nil {
				return err
			}
			apt, err := svc.AddApartment(cmd.Context(), args[0], core.ApartmentInput{Number: args[1], Description: description, Photos: photos})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", apt.ID, apt.Number)
			return a.synced()
		},
	}
	add.Flags().StringVar(&description, "description", "", "description")
	add.Flags().StringSliceVar(&photoPaths, "photo", nil, "photo files (at most 5 are kept)")

	var morePhotos []string
	addPhotos := &cobra.Command{
		Use:   "photos <hotel-id> <apartment-id>",
		Short: "Append photos to an apartment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			photos, err := encodePhotos(cmd.Context(), morePhotos)
			if err != nil {
				return err
			}
			apt, err := svc.AppendApartmentPhotos(cmd.Context(), args[0], args[1], photos)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d fotos\n", len(apt.Photos))
			return a.synced()
		},
	}
	addPhotos.Flags().StringSliceVar(&morePhotos, "photo", nil, "photo files")

	list := &cobra.Command{
		Use:   "list <hotel-id>",
		Short: "List apartments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			h, err := svc.Hotel(args[0])
			if err != nil {
				return err
			}
			w := a.table()
			for _, apt := range h.Apartments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d itens\t%d fotos\n", apt.ID, apt.Number, apt.Description, len(apt.Items), len(apt.Photos))
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <hotel-id> <apartment-id>",
		Short: "Delete an apartment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.RequestDeleteApartment(args[0], args[1])
			if err != nil {
				return err
			}
			return a.confirm(cmd.Context(), svc, p)
		},
	}

	delPhoto := &cobra.Command{
		Use:   "delete-photo <hotel-id> <apartment-id> <index>",
		Short: "Remove one apartment photo",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("índice inválido %q", args[2])
			}
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			return a.confirm(cmd.Context(), svc, svc.RequestDeleteApartmentPhoto(args[0], args[1], index))
		},
	}

	cmd.AddCommand(add, addPhotos, list, del, delPhoto)
	return cmd
}

func (a *app) itemCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "item", Short: "Manage apartment items"}

	var photoPaths []string
	add := &cobra.Command{
		Use:   "add <hotel-id> <apartment-id> <name>",
		Short: "Add an item in status OK",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			photos, err := encodePhotos(cmd.Context(), photoPaths)
			if err != nil {
				return err
			}
			it, err := svc.AddItem(cmd.Context(), args[0], args[1], core.ItemInput{Name: args[2], Photos: photos})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", it.ID, it.Name, it.Status)
			return a.synced()
		},
	}
	add.Flags().StringSliceVar(&photoPaths, "photo", nil, "photo files")

	status := &cobra.Command{
		Use:   "status <hotel-id> <apartment-id> <item-id> <status>",
		Short: "Set the item status (ok, needs_repair, damaged)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ok := domain.ParseItemStatus(args[3])
			if !ok {
				return fmt.Errorf("status desconhecido %q", args[3])
			}
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			it, err := svc.SetItemStatus(cmd.Context(), args[0], args[1], args[2], st)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", it.Name, it.Status)
			return a.synced()
		},
	}

	list := &cobra.Command{
		Use:   "list <hotel-id> <apartment-id>",
		Short: "List items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			apt, err := svc.Apartment(args[0], args[1])
			if err != nil {
				return err
			}
			w := a.table()
			for _, it := range apt.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d fotos\n", it.ID, it.Name, it.Status, len(it.Photos))
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <hotel-id> <apartment-id> <item-id>",
		Short: "Delete an item; its history is kept",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.RequestDeleteItem(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return a.confirm(cmd.Context(), svc, p)
		},
	}

	cmd.AddCommand(add, status, list, del)
	return cmd
}

func (a *app) logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Maintenance history"}

	var photoPaths []string
	add := &cobra.Command{
		Use:   "add <hotel-id> <apartment-id> <item-id> <notes>",
		Short: "Record maintenance on an item",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			photos, err := encodePhotos(cmd.Context(), photoPaths)
			if err != nil {
				return err
			}
			l, err := svc.AddLog(cmd.Context(), args[0], args[1], core.LogInput{ItemID: args[2], Notes: args[3], Photos: photos})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", l.ID, l.Date.In(a.loc).Format("02/01/2006 15:04"))
			return a.synced()
		},
	}
	add.Flags().StringSliceVar(&photoPaths, "photo", nil, "photo files")

	var statusFilter string
	list := &cobra.Command{
		Use:   "list <hotel-id> <apartment-id>",
		Short: "Show the apartment history, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter core.HistoryFilter
			if statusFilter != "" {
				st, ok := domain.ParseItemStatus(statusFilter)
				if !ok {
					return fmt.Errorf("status desconhecido %q", statusFilter)
				}
				filter.Status = st
			}
			svc, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.History(args[0], args[1], filter)
			if err != nil {
				return err
			}
			w := a.table()
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d fotos\n", e.Log.Date.In(a.loc).Format("02/01/2006 15:04"), e.ItemLabel, e.Log.Notes, len(e.Log.Photos))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&statusFilter, "status", "", "only entries whose item has this status")

	cmd.AddCommand(add, list)
	return cmd
}

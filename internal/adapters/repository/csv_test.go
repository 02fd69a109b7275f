package repository

import (
	"errors"
	"strings"
	"testing"
)

const sampleCSV = `Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity,Neighborhood
Snell Library,42.3384,-71.0880,4.5,120,80,400,Fenway
Boston Public Library,42.3493,-71.0782,4.8,900,150,600,Back Bay
"Cafe, Corner",42.3601,-71.0589,3.9,15,10,25,Downtown
`

func TestParseCSV_ReadsRowsInOrder(t *testing.T) {
	locs, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(locs))
	}

	first := locs[0]
	if first.Name != "Snell Library" {
		t.Errorf("expected first name Snell Library, got %q", first.Name)
	}
	if first.Latitude != 42.3384 || first.Longitude != -71.0880 {
		t.Errorf("unexpected coordinates: %v,%v", first.Latitude, first.Longitude)
	}
	if first.UserRating != 4.5 || first.NumberOfRatings != 120 {
		t.Errorf("unexpected rating fields: %v/%v", first.UserRating, first.NumberOfRatings)
	}
	if first.CurrentCapacity != 80 || first.MaxCapacity != 400 {
		t.Errorf("unexpected capacity fields: %v/%v", first.CurrentCapacity, first.MaxCapacity)
	}
	if got := first.Attributes["Neighborhood"]; got != "Fenway" {
		t.Errorf("expected extra column Neighborhood=Fenway, got %q", got)
	}
	if locs[2].Name != "Cafe, Corner" {
		t.Errorf("expected quoted name to survive, got %q", locs[2].Name)
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	header := strings.SplitN(sampleCSV, "\n", 2)[0] + "\n"
	locs, err := ParseCSV(strings.NewReader(header))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("expected no locations, got %d", len(locs))
	}
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	locs, err := ParseCSV(strings.NewReader("\ufeff" + sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 3 {
		t.Errorf("expected 3 locations, got %d", len(locs))
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "empty document",
			input:   "",
			wantMsg: "missing header row",
		},
		{
			name:    "missing columns",
			input:   "Name,Latitude,Longitude\nA,1,2\n",
			wantMsg: "missing required columns: User Rating, Number of Ratings, Current Capacity, Max Capacity",
		},
		{
			name: "non numeric cell",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,north,2,4,10,1,5\n",
			wantMsg: `line 2 column "Latitude": "north" is not a number`,
		},
		{
			name: "non finite cell",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,1,2,4,10,1,5\nB,1,2,NaN,10,1,5\n",
			wantMsg: `line 3 column "User Rating"`,
		},
		{
			name: "zero max capacity",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,1,2,4,10,1,5\nB,1,2,4,10,0,0\n",
			wantMsg: `line 3 column "Max Capacity": 0 must be greater than 0`,
		},
		{
			name: "negative max capacity",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,1,2,4,10,1,-5\n",
			wantMsg: `line 2 column "Max Capacity": -5 must be greater than 0`,
		},
		{
			name: "crowdedness overflow",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,1,2,4,10,1e300,1e-300\n",
			wantMsg: "line 2: Current Capacity/Max Capacity overflows",
		},
		{
			name: "ragged row",
			input: "Name,Latitude,Longitude,User Rating,Number of Ratings,Current Capacity,Max Capacity\n" +
				"A,1,2,4\n",
			wantMsg: "wrong number of fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedDataset) {
				t.Errorf("expected ErrMalformedDataset, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error to contain %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

package plex

import "strings"

// MediaContainer is the envelope of every Plex XML response.
type MediaContainer struct {
	Size              int         `xml:"size,attr"`
	TotalSize         int         `xml:"totalSize,attr"`
	MachineIdentifier string      `xml:"machineIdentifier,attr"`
	Version           string      `xml:"version,attr"`
	Directories       []Directory `xml:"Directory"`
	Videos            []Video     `xml:"Video"`
}

// Directory is a library section or a collection.
type Directory struct {
	Key       string `xml:"key,attr"`
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
	Type      string `xml:"type,attr"`
	Subtype   string `xml:"subtype,attr"`
}

// Video is a movie entry.
type Video struct {
	RatingKey   string  `xml:"ratingKey,attr"`
	Key         string  `xml:"key,attr"`
	Title       string  `xml:"title,attr"`
	Year        int     `xml:"year,attr"`
	Media       []Media `xml:"Media"`
	Collections []Tag   `xml:"Collection"`
}

// Media groups the file parts of one version of a movie.
type Media struct {
	Parts []Part `xml:"Part"`
}

// Part is a single media file.
type Part struct {
	File string `xml:"file,attr"`
}

// Tag is a Plex tag such as a collection membership.
type Tag struct {
	Tag string `xml:"tag,attr"`
}

// FilePath returns the file of the first part of the first media entry.
func (v Video) FilePath() string {
	for _, media := range v.Media {
		for _, part := range media.Parts {
			if file := strings.TrimSpace(part.File); file != "" {
				return file
			}
		}
	}
	return ""
}

// CollectionNames returns the collection tags on the movie.
func (v Video) CollectionNames() []string {
	names := make([]string, 0, len(v.Collections))
	for _, tag := range v.Collections {
		if tag.Tag != "" {
			names = append(names, tag.Tag)
		}
	}
	return names
}

// Section is a resolved library section.
type Section struct {
	Key   string
	Title string
	Type  string
}

// Collection is a collection in a library section.
type Collection struct {
	RatingKey string
	Title     string
}

package catalog_test

import "collectsync/internal/reconcile"

func targetMovie(ratingKey string) reconcile.TargetMovie {
	return reconcile.TargetMovie{RatingKey: ratingKey, Title: "movie " + ratingKey}
}

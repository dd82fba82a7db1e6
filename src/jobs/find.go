package jobs

import "fmt"

// Find returns the job whose ID or TargetID equals ref. IDs win over targets.
func Find(list []JobRecord, ref string) (JobRecord, error) {
	for _, j := range list {
		if j.ID == ref {
			return j, nil
		}
	}
	var match []JobRecord
	for _, j := range list {
		if j.TargetID == ref {
			match = append(match, j)
		}
	}
	switch len(match) {
	case 0:
		return JobRecord{}, fmt.Errorf("no job matches %q", ref)
	case 1:
		return match[0], nil
	default:
		return JobRecord{}, fmt.Errorf("%d jobs target %q; select one by id", len(match), ref)
	}
}

package googleads

import "fmt"

// JobStatusQuery selects the state of one upload job.
func JobStatusQuery(job string) string {
	return fmt.Sprintf(`
        SELECT
          offline_user_data_job.resource_name,
          offline_user_data_job.id,
          offline_user_data_job.status,
          offline_user_data_job.type,
          offline_user_data_job.failure_reason,
          offline_user_data_job.customer_match_user_list_metadata.user_list
        FROM offline_user_data_job
        WHERE offline_user_data_job.resource_name =
          '%s'
        LIMIT 1`, job)
}

// UserListSizeQuery selects the display and search size estimates of a list.
func UserListSizeQuery(userList string) string {
	return fmt.Sprintf(`
        SELECT
          user_list.resource_name,
          user_list.size_for_display,
          user_list.size_for_search
        FROM user_list
        WHERE user_list.resource_name = '%s'`, userList)
}
